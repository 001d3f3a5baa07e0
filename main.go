package main

import (
	"github.com/Unverifiedd/m3u8XM/cmd"

	_ "github.com/Unverifiedd/m3u8XM/cmd/channels"
	_ "github.com/Unverifiedd/m3u8XM/cmd/server"
)

func main() {
	cmd.Execute()
}
