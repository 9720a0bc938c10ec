// Package adapter bridges the picture model and the standard library image
// codecs. PNG keeps palette and grayscale data in their native form; JPEG
// always carries RGB. DecodeAny accepts any format registered with the image
// package, so importers can widen the accepted input set with blank imports.
package adapter
