//	@title			Image Relay API
//	@version		1.0
//	@description	Relays uploaded images to a Google Cloud Storage bucket and returns their public URLs.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"os"

	cliruntime "github.com/tomasbasham/cli-runtime"

	"github.com/imgrelay/service/internal/cmd"
)

func main() {
	command := cmd.NewRootCommand()
	if code := cliruntime.Run(command); code != 0 {
		os.Exit(code)
	}
}
