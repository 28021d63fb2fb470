package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSize    = errors.New("invalid photo size")
	ErrInvalidOptions = errors.New("invalid generation options")
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

type CustomSize struct {
	Width  decimal.Decimal
	Height decimal.Decimal
}

// Size is either a named preset or a custom width and height in millimetres.
// The zero value is unset and fails validation.
type Size struct {
	preset string
	custom *CustomSize
}

func PresetSize(label string) Size {
	return Size{preset: label}
}

func NewCustomSize(width, height decimal.Decimal) (Size, error) {
	if !width.IsPositive() || !height.IsPositive() {
		return Size{}, fmt.Errorf("%w: custom width and height must be positive", ErrInvalidSize)
	}
	return Size{custom: &CustomSize{Width: width, Height: height}}, nil
}

// ParseSize builds a Size from the raw form fields. The custom label requires both
// dimensions; any other label must name a preset.
func ParseSize(label, width, height string) (Size, error) {
	label = strings.TrimSpace(label)
	if label == SizeCustomLabel {
		w, err := decimal.NewFromString(strings.TrimSpace(width))
		if err != nil {
			return Size{}, fmt.Errorf("%w: custom width %q", ErrInvalidSize, width)
		}
		h, err := decimal.NewFromString(strings.TrimSpace(height))
		if err != nil {
			return Size{}, fmt.Errorf("%w: custom height %q", ErrInvalidSize, height)
		}
		return NewCustomSize(w, h)
	}
	if !IsPresetSize(label) {
		return Size{}, fmt.Errorf("%w: unknown size %q", ErrInvalidSize, label)
	}
	return PresetSize(label), nil
}

func (s Size) IsZero() bool {
	return s.custom == nil && s.preset == ""
}

func (s Size) Custom() (CustomSize, bool) {
	if s.custom == nil {
		return CustomSize{}, false
	}
	return *s.custom, true
}

// String returns the resolved size: the preset label, or "{w}x{h} mm" for custom sizes.
func (s Size) String() string {
	if s.custom != nil {
		return fmt.Sprintf("%sx%s mm", s.custom.Width.String(), s.custom.Height.String())
	}
	return s.preset
}

type GenerationOptions struct {
	Gender     Gender
	Size       Size
	Background string
	Clothing   string
	FaceSmooth bool
	LightFix   bool
	Brightness int
	Fairness   int
}

func (o GenerationOptions) Validate() error {
	if !o.Gender.Valid() {
		return fmt.Errorf("%w: gender %q", ErrInvalidOptions, o.Gender)
	}
	if o.Size.IsZero() {
		return fmt.Errorf("%w: size is required", ErrInvalidSize)
	}
	if o.Brightness < 0 || o.Brightness > 100 {
		return fmt.Errorf("%w: brightness must be within 0-100", ErrInvalidOptions)
	}
	if o.Fairness < 0 || o.Fairness > 100 {
		return fmt.Errorf("%w: fairness must be within 0-100", ErrInvalidOptions)
	}
	if strings.TrimSpace(o.Clothing) == "" {
		return fmt.Errorf("%w: clothing is required", ErrInvalidOptions)
	}
	return nil
}

// Snapshot captures the options as stored on a photo record.
func (o GenerationOptions) Snapshot() PhotoOptions {
	snap := PhotoOptions{
		Gender:     o.Gender,
		Size:       o.Size.String(),
		Background: o.Background,
		Clothing:   o.Clothing,
		FaceSmooth: o.FaceSmooth,
		LightFix:   o.LightFix,
		Brightness: o.Brightness,
		Fairness:   o.Fairness,
	}
	if c, ok := o.Size.Custom(); ok {
		snap.CustomWidth = c.Width.String()
		snap.CustomHeight = c.Height.String()
	}
	return snap
}

type PhotoOptions struct {
	Gender       Gender `json:"gender"`
	Size         string `json:"size"`
	CustomWidth  string `json:"custom_width,omitempty"`
	CustomHeight string `json:"custom_height,omitempty"`
	Background   string `json:"background"`
	Clothing     string `json:"clothing"`
	FaceSmooth   bool   `json:"face_smooth"`
	LightFix     bool   `json:"light_fix"`
	Brightness   int    `json:"brightness"`
	Fairness     int    `json:"fairness"`
}
