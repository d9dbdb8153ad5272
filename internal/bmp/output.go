package bmp

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/anas-shakeel/bmp-parser/internal/utils"
)

type bitmapJSON struct {
	FileIdentifier          string      `json:"file_identifier"`
	FileSizeBytes           uint32      `json:"file_size_bytes"`
	PixelReadAddr           uint32      `json:"pixel_read_addr"`
	DIBHeaderSize           uint32      `json:"dib_header_size"`
	ImageWidth              int32       `json:"image_width"`
	ImageHeight             int32       `json:"image_height"`
	NumColorPlanes          uint16      `json:"num_color_planes"`
	BitsPerPixel            uint16      `json:"bits_per_pixel"`
	CompressionMethod       uint32      `json:"compression_method"`
	CompressionMethodName   string      `json:"compression_method_name"`
	RawImageSize            uint32      `json:"raw_image_size"`
	ResolutionHorizontalPPM int32       `json:"resolution_horizontal_ppm"`
	ResolutionVerticalPPM   int32       `json:"resolution_vertical_ppm"`
	NumColors               uint32      `json:"num_colors"`
	NumImportantColors      uint32      `json:"num_important_colors"`
	PixelArrFlat            *pixelArray `json:"pixel_arr_flat,omitempty"`
}

// pixelArray marshals as a JSON array of numbers instead of base64.
type pixelArray []byte

func (p pixelArray) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(p)*4)
	buf = append(buf, '[')
	for i, v := range p {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(v), 10)
	}
	return append(buf, ']'), nil
}

func headersJSON(bf *BitmapFileHeader, bi *BitmapInfoHeader) bitmapJSON {
	return bitmapJSON{
		FileIdentifier:          bf.Identifier(),
		FileSizeBytes:           bf.Size,
		PixelReadAddr:           bf.OffBits,
		DIBHeaderSize:           bi.Size,
		ImageWidth:              bi.Width,
		ImageHeight:             bi.Height,
		NumColorPlanes:          bi.Planes,
		BitsPerPixel:            bi.BitCount,
		CompressionMethod:       uint32(bi.Compression),
		CompressionMethodName:   bi.Compression.String(),
		RawImageSize:            bi.SizeImage,
		ResolutionHorizontalPPM: bi.XPixelsPerM,
		ResolutionVerticalPPM:   bi.YPixelsPerM,
		NumColors:               bi.ColorsUsed,
		NumImportantColors:      bi.ColorsImportant,
	}
}

// MarshalJSON encodes the headers as flat fields and the pixels as a
// number array under "pixel_arr_flat".
func (b *BitmapImage) MarshalJSON() ([]byte, error) {
	j := headersJSON(b.BFHeader, b.BIHeader)
	pixels := pixelArray(b.Pixels)
	j.PixelArrFlat = &pixels
	return json.Marshal(j)
}

// Encodes only the headers, as produced by DecodeHeaders
func MarshalHeaders(bf *BitmapFileHeader, bi *BitmapInfoHeader) ([]byte, error) {
	return json.Marshal(headersJSON(bf, bi))
}

// Print the Metadata of the bitmap (in human-readable format)
func (b *BitmapImage) PrintMetadata(w io.Writer) error {
	if err := PrintHeaders(w, b.BFHeader, b.BIHeader); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Pixel Array Size: %d\n", len(b.Pixels))
	return err
}

// Print the header fields, one labeled line each
func PrintHeaders(w io.Writer, bf *BitmapFileHeader, bi *BitmapInfoHeader) error {
	lines := []struct {
		label string
		value any
	}{
		{"File Identifier", bf.Identifier()},
		{"File Size (bytes)", bf.Size},
		{"Pixel Array Address", bf.OffBits},
		{"DIB Header Size", bi.Size},
		{"Image Height", bi.Height},
		{"Image Width", bi.Width},
		{"Number of Color Planes", bi.Planes},
		{"Bits Per Pixel", bi.BitCount},
		{"Compression Method", bi.Compression},
		{"# of Colors", bi.ColorsUsed},
		{"# of important Colors", bi.ColorsImportant},
		{"Raw Image Size", bi.SizeImage},
		{"Horizontal Resolution PPM", bi.XPixelsPerM},
		{"Vertical Resolution PPM", bi.YPixelsPerM},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %v\n", l.label, l.value); err != nil {
			return err
		}
	}
	return nil
}

// Print the bitmap in terminal. Use for small images only
func (b *BitmapImage) PrintBitmap(w io.Writer) error {
	width := b.Width()
	for row := range b.Height() {
		for col := range width {
			p := b.Pixels[(row*width+col)*4:]
			if _, err := io.WriteString(w, utils.ColoredBlock("  ", int(p[0]), int(p[1]), int(p[2]))); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
