// Package phash computes 64-bit difference hashes (dHash) of raster images
// and the Hamming distance between them.
//
// A hash is computed by compositing the image over white, resizing it to
// 9x8 with bilinear interpolation, converting each pixel to BT.709 luma and
// comparing every pixel with its right neighbour. Bit row*8+col is set when
// the left pixel is strictly brighter than the right one.
//
// A Hash carries its own validity flag. Hashing an image that cannot be
// processed yields Invalid, and any distance involving an invalid hash is
// MaxDistance so that such items never cluster with anything.
package phash
