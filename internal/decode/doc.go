// Package decode turns fetched logo bytes into a raster image.
//
// Decoding tries a fixed chain of strategies and returns the first image
// with positive dimensions:
//
//  1. the raster decoders (PNG, JPEG, GIF, BMP, WebP, TIFF)
//  2. the ICO and CUR reader, when the URL or content type looks like an icon
//  3. every registered decoder through imaging, icon containers included
//  4. SVG rasterisation at 512, 256 and 1024 pixels wide
//
// A failing or panicking strategy never aborts the chain.
package decode
