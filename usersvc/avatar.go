package usersvc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"regexp"

	"golang.org/x/image/draw"
)

const (
	MaxAvatarSize = 1000000
	AvatarWidth   = 250
	AvatarHeight  = 250
)

var avatarExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)

// ProcessAvatar checks an uploaded image and converts it to a 250x250 PNG.
func ProcessAvatar(filename string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: please upload an image", ErrInvalidArgument)
	}
	if len(data) > MaxAvatarSize {
		return nil, fmt.Errorf("%w: image must be smaller than %d bytes", ErrInvalidArgument, MaxAvatarSize)
	}
	if !avatarExt.MatchString(filename) {
		return nil, fmt.Errorf("%w: please upload a jpg, jpeg or png image", ErrInvalidArgument)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || (format != "jpeg" && format != "png") {
		return nil, fmt.Errorf("%w: please upload a jpg, jpeg or png image", ErrInvalidArgument)
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarWidth, AvatarHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
