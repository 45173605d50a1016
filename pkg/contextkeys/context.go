package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - ключ, по которому хранится *gorm.DB (пул или транзакция)
const DBContextKey = contextKey("db")

// Ключи gin.Context, которые выставляет AuthMiddleware.
// gin хранит значения по строковым ключам, поэтому это обычные строки.
const (
	UserIDKey    = "userID"
	UserRoleKey  = "role"
	UserEmailKey = "email"
)
