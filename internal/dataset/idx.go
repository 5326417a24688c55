package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers: unsigned bytes with three and one dimensions.
const (
	ImageMagic = 0x803
	LabelMagic = 0x801
)

// Classes is the number of label classes; labels are one-hot encoded.
const Classes = 10

// MaxSide bounds the image side accepted by ReadIDX.
const MaxSide = 300

// MaxItems bounds the item count accepted by ReadIDX. Headers are checked
// against it before anything is allocated.
const MaxItems = 1 << 20

var (
	// ErrBadMagic is returned when a file does not start with the expected
	// IDX magic number.
	ErrBadMagic = errors.New("dataset: bad idx magic number")
	// ErrBadHeader is returned for inconsistent IDX headers.
	ErrBadHeader = errors.New("dataset: bad idx header")
)

// LoadIDX reads an image file and a label file in the IDX format used by
// MNIST. Either file may be gzip-compressed.
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	images, err := os.Open(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("open images: %w", err)
	}
	defer images.Close()

	labels, err := os.Open(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer labels.Close()

	return ReadIDX(images, labels)
}

// ReadIDX decodes a square-image file and its label file. Pixels are scaled to
// [0, 1] and labels become one-hot vectors over Classes classes.
func ReadIDX(images, labels io.Reader) (*Dataset, error) {
	img, err := decompress(images)
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	lbl, err := decompress(labels)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	var ih [4]uint32
	if err := binary.Read(img, binary.BigEndian, &ih); err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	var lh [2]uint32
	if err := binary.Read(lbl, binary.BigEndian, &lh); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}

	if ih[0] != ImageMagic {
		return nil, fmt.Errorf("images: %w: %#x", ErrBadMagic, ih[0])
	}
	if lh[0] != LabelMagic {
		return nil, fmt.Errorf("labels: %w: %#x", ErrBadMagic, lh[0])
	}
	count, width, height := ih[1], ih[2], ih[3]
	if count != lh[1] || count == 0 {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrBadHeader, count, lh[1])
	}
	if count > MaxItems {
		return nil, fmt.Errorf("%w: %d items, at most %d supported", ErrBadHeader, count, MaxItems)
	}
	if width != height || width == 0 || width >= MaxSide {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrBadHeader, width, height)
	}

	pixels := int(width * height)
	buf := make([]byte, pixels)
	classes := make([]byte, count)
	if _, err := io.ReadFull(lbl, classes); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	d := &Dataset{
		Samples: make([][]float32, count),
		Labels:  make([][]float32, count),
	}
	for i := range d.Samples {
		if classes[i] >= Classes {
			return nil, fmt.Errorf("%w: label %d of item %d", ErrBadHeader, classes[i], i)
		}
		if _, err := io.ReadFull(img, buf); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
		sample := make([]float32, pixels)
		for j, p := range buf {
			sample[j] = float32(p) / 255
		}
		d.Samples[i] = sample
		d.Labels[i] = OneHot(int(classes[i]), Classes)
	}
	return d, nil
}

// decompress wraps r in a gzip reader when it starts with the gzip magic.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err == nil && head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr, nil
	}
	return br, nil
}
