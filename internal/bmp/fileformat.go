// BMP-specific structs and types
package bmp

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
)

// The BitmapFileHeader structure contains information about the type, size,
// and layout of a file that contains a DIB [device-independent bitmap].
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader

type BitmapFileHeader struct {
	Type      [2]byte // The file type: must be 0x4d42 (ASCII string "BM").
	Size      uint32  // The size, in bytes, of the bitmap file.
	Reserved1 uint16  // Reserved; must be zero.
	Reserved2 uint16  // Reserved; must be zero.
	OffBits   uint32  // Bitmap File Offset (In bytes) to Pixel Arrays
}

// Identifier returns the two magic bytes as a string.
func (h *BitmapFileHeader) Identifier() string {
	return string([]rune{rune(h.Type[0]), rune(h.Type[1])})
}

// The BitmapInfoHeader structure contains information about the
// dimensions and color format of DIB [device-independent bitmap].

type BitmapInfoHeader struct {
	Size            uint32      // The number of bytes required by the structure.
	Width           int32       // The width of the bitmap, in pixels.
	Height          int32       // The height of the bitmap, in pixels (negative: top-down rows)
	Planes          uint16      // The number of planes for the target device.
	BitCount        uint16      // The number of bits-per-pixel.
	Compression     Compression // The type of compression
	SizeImage       uint32      // The size of the image (in bytes). May be 0 when uncompressed.
	XPixelsPerM     int32       // The horizontal resolution, in pixels-per-meter.
	YPixelsPerM     int32       // The vertical resolution, in pixels-per-meter.
	ColorsUsed      uint32      // Number of color indexes that are actually used by bitmap.
	ColorsImportant uint32      // Number of color indexes required for displaying the bitmap.
}

// Compression is the biCompression code of the info header.
type Compression uint32

const (
	CompressionNone      Compression = 0
	CompressionRLE8      Compression = 1
	CompressionRLE4      Compression = 2
	CompressionHuffman1D Compression = 3
	CompressionRLE24     Compression = 4
	CompressionBitfields Compression = 6

	// CMYK variants
	CompressionCMYK     Compression = 11
	CompressionCMYKRLE8 Compression = 12
	CompressionCMYKRLE4 Compression = 13
)

var compressionNames = map[Compression]string{
	CompressionNone:      "None",
	CompressionRLE8:      "RLE8",
	CompressionRLE4:      "RLE4",
	CompressionHuffman1D: "Huffman1D",
	CompressionRLE24:     "RLE24",
	CompressionBitfields: "RGBA-bitfields",
	CompressionCMYK:      "None",
	CompressionCMYKRLE8:  "RLE8",
	CompressionCMYKRLE4:  "RLE4",
}

// String returns the name of the compression scheme, or "" for codes
// that have none (5 and anything unrecognized).
func (c Compression) String() string {
	return compressionNames[c]
}

// Known reports whether c is one of the named codes.
func (c Compression) Known() bool {
	_, ok := compressionNames[c]
	return ok
}
