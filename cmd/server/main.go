package main

import (
	_ "time/tzdata"

	"clinic/internal/app/server"
)

func main() {
	server.Run()
}
