// Package heif writes and reads the subset of the HEIF (ISO/IEC 23008-12)
// container needed for stereo image pairs: JPEG-coded image items, Exif
// metadata items, image spatial extents, camera intrinsic and extrinsic
// properties, and a 'ster' entity group naming the left and right views.
package heif
