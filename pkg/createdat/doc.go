// Package createdat attributes a capture timestamp to a media file.
//
// Two tiers are consulted in order: the embedded EXIF capture time, then the
// filesystem inode-change time. Every returned timestamp is in UTC.
package createdat
