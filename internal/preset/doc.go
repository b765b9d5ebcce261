// Package preset reads the profile collections that describe how a file is
// encoded.
//
// A preset is a JSON file named <preset>.prst in the preset directory. It
// holds a list of profiles, each carrying the passes handed to
// task.ParsePasses, the output extension and the input extensions it
// accepts. Store is the read-only contract the CLI depends on; DirStore is
// the filesystem implementation.
package preset
