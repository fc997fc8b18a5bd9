/*
Package colorcipher is a reversible text to color encoder. Every byte of the text becomes
a hex pair, every three pairs become one RGB color, and the resulting color sequence
can be rendered as a palette image and decoded back into the original text.

The package provides a command line interface, supporting various flags for the
different operation modes and export layouts. To check the supported commands type:

	$ colorcipher --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"os"

		"github.com/esimov/colorcipher"
	)

	func main() {
		p := &colorcipher.Processor{
			Mode:   colorcipher.Encode,
			Layout: colorcipher.Simple,
		}

		if err := p.Process(os.Stdin, os.Stdout); err != nil {
			fmt.Printf("Error encoding the message: %s", err.Error())
		}
	}

The encoding is not encryption: anybody holding the palette can read the message.
*/
package colorcipher
