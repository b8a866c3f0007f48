// Command faces detects, selects and aligns faces in images and videos.
package main

import "github.com/facelab/go-faces/cmd/faces/internal/cli"

func main() {
	cli.Execute()
}
