package main

import "github.com/dh1tw/audioEngine/cmd"

func main() {
	cmd.Execute()
}
