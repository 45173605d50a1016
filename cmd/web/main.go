package main

import "curaconnect_backend/internal/app"

func main() {
	app.Run()
}
