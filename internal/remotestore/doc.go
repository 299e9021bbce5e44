// Package remotestore is the object-storage client for media files. Objects
// are keyed per asset ({assetID}/{purpose}{size}{ext}) so every file derived
// from one upload lives under a single prefix.
package remotestore
