// Package codec decodes still images into rasters with their property bags
// and writes stereo pairs into a HEIF spatial container.
//
// Decoding understands JPEG (including multi-picture files, read one JPEG
// stream at a time), PNG, GIF, WebP, BMP and TIFF. EXIF blocks are read with
// goexif and sorted into the {TIFF}, {Exif} and {GPS} dictionaries. HEIC input
// is recognized but not decodable.
package codec
