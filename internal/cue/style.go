package cue

type VerticalPlacement string

const (
	PlaceTop    VerticalPlacement = "Top"
	PlaceMiddle VerticalPlacement = "Middle"
	PlaceBottom VerticalPlacement = "Bottom"
)

type HorizontalPlacement string

const (
	PlaceLeft   HorizontalPlacement = "Left"
	PlaceCenter HorizontalPlacement = "Center"
	PlaceRight  HorizontalPlacement = "Right"
)

// sparse set of style attributes; a zero-value field means "not overridden
// at this level"
type StylingOptions struct {
	FontFamily          string              `json:"fontFamily,omitempty"`
	FontSize            string              `json:"fontSize,omitempty"` // unit-suffixed, e.g. "20px"
	Color               string              `json:"color,omitempty"`
	Bold                *bool               `json:"bold,omitempty"`
	Italic              *bool               `json:"italic,omitempty"`
	TextShadow          string              `json:"textShadow,omitempty"`
	BackgroundColor     string              `json:"backgroundColor,omitempty"` // supports rgba alpha
	BorderRadius        string              `json:"borderRadius,omitempty"`
	Border              string              `json:"border,omitempty"`
	VerticalPlacement   VerticalPlacement   `json:"verticalPlacement,omitempty"`
	HorizontalPlacement HorizontalPlacement `json:"horizontalPlacement,omitempty"`
}

// fully resolved style with every attribute populated
type EffectiveStyle struct {
	FontFamily          string
	FontSize            string
	Color               string
	Bold                bool
	Italic              bool
	TextShadow          string
	BackgroundColor     string
	BorderRadius        string
	Border              string
	VerticalPlacement   VerticalPlacement
	HorizontalPlacement HorizontalPlacement
}

// DefaultGlobalStyles returns the built-in bottom tier of the style merge.
func DefaultGlobalStyles() StylingOptions {
	return StylingOptions{
		FontFamily:          "Arial",
		FontSize:            "20px",
		Color:               "#FFFFFF",
		Bold:                boolPtr(false),
		Italic:              boolPtr(false),
		TextShadow:          "1px 1px 2px rgba(0,0,0,0.7)",
		BackgroundColor:     "rgba(0,0,0,0.5)",
		BorderRadius:        "4px",
		Border:              "none",
		VerticalPlacement:   PlaceBottom,
		HorizontalPlacement: PlaceCenter,
	}
}

// ResolveStyle merges the three style tiers: a cue-level value wins when
// present, else the project global value, else the built-in default. The
// merge order is fixed here so every consumption point resolves identically.
func ResolveStyle(cueStyle *StylingOptions, global StylingOptions, builtin StylingOptions) EffectiveStyle {
	merged := overlay(overlay(builtin, global), deref(cueStyle))

	return EffectiveStyle{
		FontFamily:          merged.FontFamily,
		FontSize:            merged.FontSize,
		Color:               merged.Color,
		Bold:                merged.Bold != nil && *merged.Bold,
		Italic:              merged.Italic != nil && *merged.Italic,
		TextShadow:          merged.TextShadow,
		BackgroundColor:     merged.BackgroundColor,
		BorderRadius:        merged.BorderRadius,
		Border:              merged.Border,
		VerticalPlacement:   merged.VerticalPlacement,
		HorizontalPlacement: merged.HorizontalPlacement,
	}
}

// overlay applies every attribute present in top over base.
func overlay(base, top StylingOptions) StylingOptions {
	out := base
	if top.FontFamily != "" {
		out.FontFamily = top.FontFamily
	}
	if top.FontSize != "" {
		out.FontSize = top.FontSize
	}
	if top.Color != "" {
		out.Color = top.Color
	}
	if top.Bold != nil {
		out.Bold = top.Bold
	}
	if top.Italic != nil {
		out.Italic = top.Italic
	}
	if top.TextShadow != "" {
		out.TextShadow = top.TextShadow
	}
	if top.BackgroundColor != "" {
		out.BackgroundColor = top.BackgroundColor
	}
	if top.BorderRadius != "" {
		out.BorderRadius = top.BorderRadius
	}
	if top.Border != "" {
		out.Border = top.Border
	}
	if top.VerticalPlacement != "" {
		out.VerticalPlacement = top.VerticalPlacement
	}
	if top.HorizontalPlacement != "" {
		out.HorizontalPlacement = top.HorizontalPlacement
	}
	return out
}

// Merge overlays the given attributes onto this StylingOptions, returning
// the result. Used by batch styling to apply a sparse edit to many cues.
func (s StylingOptions) Merge(top StylingOptions) StylingOptions {
	return overlay(s, top)
}

func deref(s *StylingOptions) StylingOptions {
	if s == nil {
		return StylingOptions{}
	}
	return *s
}

func boolPtr(b bool) *bool {
	return &b
}

// Bool returns a pointer for use in sparse StylingOptions literals.
func Bool(b bool) *bool {
	return boolPtr(b)
}
