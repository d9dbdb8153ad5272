// bmp package implements a bitmap reader for 24 bit uncompressed BMP files
package bmp

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/anas-shakeel/bmp-parser/internal/utils"
)

// BitmapImage is a decoded bitmap. Pixels holds RGBA bytes, row-major,
// top row first, regardless of how the rows were stored in the file.
type BitmapImage struct {
	Filename string
	BFHeader *BitmapFileHeader
	BIHeader *BitmapInfoHeader
	Stride   int // Stored row size (incl. padding)
	Padding  int // Padding bytes skipped after each row
	Pixels   []byte
}

// Width of the image in pixels
func (b *BitmapImage) Width() int {
	return int(b.BIHeader.Width)
}

// Height of the image in pixels (always positive, top-down files included)
func (b *BitmapImage) Height() int {
	h := int(b.BIHeader.Height)
	if h < 0 {
		return -h
	}
	return h
}

// Returns a copy of the pixels as a Go image
func (b *BitmapImage) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    slices.Clone(b.Pixels),
		Stride: b.Width() * 4,
		Rect:   image.Rect(0, 0, b.Width(), b.Height()),
	}
}

// Reads a Bitmap file
func Read(filename string) (*BitmapImage, error) {
	// Open the file
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bitmap, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	bitmap.Filename = filename

	return bitmap, nil
}

// Decodes a 24 bit uncompressed bitmap from r. Nothing is returned unless
// every header field and pixel row could be read.
func Decode(r io.ReadSeeker) (*BitmapImage, error) {
	bfHeader, biHeader, err := DecodeHeaders(r)
	if err != nil {
		return nil, err
	}

	// Only the 40 byte BITMAPINFOHEADER is understood
	if biHeader.Size != infoHeaderLen {
		return nil, UnsupportedError("DIB header version (size " + strconv.FormatUint(uint64(biHeader.Size), 10) + ")")
	}

	// Support only 24bit uncompressed Bitmaps (common)
	if biHeader.BitCount != 24 {
		return nil, UnsupportedError("bit depth " + strconv.FormatUint(uint64(biHeader.BitCount), 10))
	}
	if biHeader.Compression != CompressionNone {
		return nil, UnsupportedError("compression method " + compressionLabel(biHeader.Compression))
	}

	if biHeader.Width < 0 {
		return nil, FormatError("negative width")
	}
	if bfHeader.OffBits < fileHeaderLen+infoHeaderLen {
		return nil, FormatError("pixel array offset " + strconv.FormatUint(uint64(bfHeader.OffBits), 10) + " overlaps headers")
	}

	bitmap := &BitmapImage{
		BFHeader: bfHeader,
		BIHeader: biHeader,
	}
	if err := bitmap.readPixelArray(r); err != nil {
		return nil, err
	}

	return bitmap, nil
}

// Decodes only the file header and the info header. Unlike Decode, it
// accepts any bit depth, compression and DIB size, so it can describe
// files whose pixels this package cannot read.
func DecodeHeaders(r io.Reader) (*BitmapFileHeader, *BitmapInfoHeader, error) {
	bfHeader, err := readFileHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading file header: %w", err)
	}

	// Verify that this is a .BMP file by checking bitmap id (0x424d)
	if bfHeader.Type != [2]byte{'B', 'M'} {
		return nil, nil, FormatError("not a BMP file (identifier " + strconv.Quote(bfHeader.Identifier()) + ")")
	}

	biHeader, err := readInfoHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading DIB header: %w", err)
	}

	return bfHeader, biHeader, nil
}

func readFileHeader(r io.Reader) (*BitmapFileHeader, error) {
	var buf [fileHeaderLen]byte
	if err := readFull(r, buf[:]); err != nil {
		return nil, err
	}

	return &BitmapFileHeader{
		Type:      [2]byte{buf[0], buf[1]},
		Size:      utils.CombineUnsigned(buf[2:6]),
		Reserved1: uint16(utils.CombineUnsigned(buf[6:8])),
		Reserved2: uint16(utils.CombineUnsigned(buf[8:10])),
		OffBits:   utils.CombineUnsigned(buf[10:14]),
	}, nil
}

// Always consumes exactly 40 bytes, whatever Size declares.
func readInfoHeader(r io.Reader) (*BitmapInfoHeader, error) {
	var buf [infoHeaderLen]byte
	if err := readFull(r, buf[:]); err != nil {
		return nil, err
	}

	return &BitmapInfoHeader{
		Size:            utils.CombineUnsigned(buf[0:4]),
		Width:           utils.CombineSigned(buf[4:8]),
		Height:          utils.CombineSigned(buf[8:12]),
		Planes:          uint16(utils.CombineUnsigned(buf[12:14])),
		BitCount:        uint16(utils.CombineUnsigned(buf[14:16])),
		Compression:     Compression(utils.CombineUnsigned(buf[16:20])),
		SizeImage:       utils.CombineUnsigned(buf[20:24]),
		XPixelsPerM:     utils.CombineSigned(buf[24:28]),
		YPixelsPerM:     utils.CombineSigned(buf[28:32]),
		ColorsUsed:      utils.CombineUnsigned(buf[32:36]),
		ColorsImportant: utils.CombineUnsigned(buf[36:40]),
	}, nil
}

// Reads the pixel rows starting at OffBits and converts them to RGBA,
// flipping bottom-up files so the top row comes first.
func (b *BitmapImage) readPixelArray(r io.ReadSeeker) error {
	width := b.Width()
	height := b.Height()
	topDown := b.BIHeader.Height < 0 // Pixels are stored TopDown?
	bytesPerPixel := int(b.BIHeader.BitCount / 8)

	b.Stride = ((int(b.BIHeader.BitCount)*width + 31) / 32) * 4 // Total bytes in a row (incl. padding)
	rowLen := width * bytesPerPixel
	b.Padding = b.Stride - rowLen // padding-bytes for each row
	b.Pixels = make([]byte, 0)

	if width == 0 || height == 0 {
		return nil
	}

	// Refuse to allocate for rows the input does not contain
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	// Compared by division so huge header dimensions cannot overflow
	avail := size - int64(b.BFHeader.OffBits)
	if int64(rowLen) > avail || (height > 1 && int64(b.Stride) > (avail-int64(rowLen))/int64(height-1)) {
		return fmt.Errorf("%w: %d rows of %d bytes do not fit in %d bytes after offset %d",
			ErrShortRead, height, b.Stride, max(avail, 0), b.BFHeader.OffBits)
	}

	// Seek to Pixel Array (OffBits)
	if _, err := r.Seek(int64(b.BFHeader.OffBits), io.SeekStart); err != nil {
		return err
	}

	b.Pixels = make([]byte, width*height*4)
	row := make([]byte, rowLen)
	for i := range height {
		rowIndex := height - i - 1
		if topDown {
			rowIndex = i
		}

		// Read pixels of current row (excluding padding)
		if err := readFull(r, row); err != nil {
			return fmt.Errorf("reading pixel row %d: %w", i, err)
		}
		convertBGRToRGBA(b.Pixels[rowIndex*width*4:(rowIndex+1)*width*4], row)

		// Seek over padding bytes
		if _, err := r.Seek(int64(b.Padding), io.SeekCurrent); err != nil {
			return err
		}
	}

	return nil
}

// Writes each BGR triple of src as an opaque RGBA pixel into dst
func convertBGRToRGBA(dst, src []byte) {
	for i, j := 0, 0; i+2 < len(src); i, j = i+3, j+4 {
		dst[j] = src[i+2]
		dst[j+1] = src[i+1]
		dst[j+2] = src[i]
		dst[j+3] = 0xff
	}
}

func readFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: expected %d bytes, found %d", ErrShortRead, len(buf), n)
	}
	return err
}

func compressionLabel(c Compression) string {
	code := strconv.FormatUint(uint64(c), 10)
	if c.Known() {
		return c.String() + " (" + code + ")"
	}
	return code
}
