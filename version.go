// Package gitrun runs git and other command-line tools, capturing their
// output as raw bytes.
package gitrun

// Version is the gitrun release version.
const Version = "0.1.0"
