package main

import (
	"dmexport-backend/cmd/dmexport/cmd"
)

func main() {
	cmd.Execute()
}
