// Package modalities classifies DICOM modalities into structural roles and
// provides image generators used to synthesise test series.
package modalities

import (
	"math/rand/v2"
	"strings"

	"github.com/suyashkumar/dicom"
)

// Modality represents a DICOM modality code (0008,0060).
type Modality string

const (
	CT       Modality = "CT"       // Computed Tomography
	MR       Modality = "MR"       // Magnetic Resonance
	PT       Modality = "PT"       // Positron Emission Tomography
	RTSTRUCT Modality = "RTSTRUCT" // RT Structure Set
	RTPLAN   Modality = "RTPLAN"   // RT Plan
	RTDOSE   Modality = "RTDOSE"   // RT Dose
)

// SOP Class UIDs the hierarchy engine cares about.
const (
	CTImageStorage        = "1.2.840.10008.5.1.4.1.1.2"
	MRImageStorage        = "1.2.840.10008.5.1.4.1.1.4"
	PETImageStorage       = "1.2.840.10008.5.1.4.1.1.128"
	RTDoseStorage         = "1.2.840.10008.5.1.4.1.1.481.2"
	RTStructureSetStorage = "1.2.840.10008.5.1.4.1.1.481.3"
	RTPlanStorage         = "1.2.840.10008.5.1.4.1.1.481.5"
)

// RTClasses is the canonical set of classes making up a complete RT study.
var RTClasses = []string{CTImageStorage, RTStructureSetStorage, RTDoseStorage, RTPlanStorage}

// Role is the structural role a series plays inside a study.
type Role int

const (
	RoleOther Role = iota
	RoleImage
	RoleRTStruct
	RoleRTPlan
	RoleRTDose
)

// String returns a short name for the role.
func (r Role) String() string {
	switch r {
	case RoleImage:
		return "image"
	case RoleRTStruct:
		return "rtstruct"
	case RoleRTPlan:
		return "rtplan"
	case RoleRTDose:
		return "rtdose"
	default:
		return "other"
	}
}

// IsRT reports whether the role is one of the radiotherapy object roles.
func (r Role) IsRT() bool {
	return r == RoleRTStruct || r == RoleRTPlan || r == RoleRTDose
}

// imageModalities lists modality codes treated as pixel-bearing image series.
var imageModalities = map[Modality]bool{
	CT: true, MR: true, PT: true,
	"CR": true, "DX": true, "US": true, "MG": true, "NM": true, "XA": true, "RF": true, "OT": true,
}

// RoleOf classifies a modality code. Matching is case-insensitive and
// ignores surrounding whitespace.
func RoleOf(modality string) Role {
	m := Modality(strings.ToUpper(strings.TrimSpace(modality)))
	switch m {
	case RTSTRUCT:
		return RoleRTStruct
	case RTPLAN:
		return RoleRTPlan
	case RTDOSE:
		return RoleRTDose
	}
	if imageModalities[m] {
		return RoleImage
	}
	return RoleOther
}

// PixelConfig holds pixel data configuration for a modality.
type PixelConfig struct {
	BitsAllocated       uint16
	BitsStored          uint16
	HighBit             uint16
	PixelRepresentation uint16 // 0 = unsigned, 1 = signed
	BaseValue           int
	MaxValue            int
}

// SeriesParams holds acquisition parameters shared by every slice of a
// synthetic series.
type SeriesParams struct {
	Modality       Modality
	Manufacturer   string
	Model          string
	PixelSpacing   float64
	SliceThickness float64
	WindowCenter   float64
	WindowWidth    float64

	// CT
	KVP              float64
	RescaleIntercept float64
	RescaleSlope     float64

	// PT
	Radiopharmaceutical string
	DecayCorrection     string
}

// Generator defines the interface for modality-specific image generators.
type Generator interface {
	// Modality returns the modality type.
	Modality() Modality

	// SOPClassUID returns the SOP Class UID written on every slice.
	SOPClassUID() string

	// GenerateSeriesParams picks acquisition parameters for a series.
	GenerateSeriesParams(rng *rand.Rand) SeriesParams

	// PixelConfig returns pixel data configuration.
	PixelConfig() PixelConfig

	// AppendModalityElements appends modality-specific DICOM elements to a dataset.
	AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error
}

// GetGenerator returns the image generator for the specified modality.
// Anything other than PT gets the CT generator.
func GetGenerator(m Modality) Generator {
	if m == PT {
		return &PTGenerator{}
	}
	return &CTGenerator{}
}
