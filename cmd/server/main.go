package main

import "kpitrack/internal/app/server"

func main() {
	server.Run()
}
