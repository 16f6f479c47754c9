package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	tagUnits           = tag.Tag{Group: 0x0054, Element: 0x1001}
	tagDecayCorrection = tag.Tag{Group: 0x0054, Element: 0x1102}
)

// PTGenerator generates PET metadata for series registered to a planning CT.
type PTGenerator struct{}

// Modality returns the PT modality type.
func (g *PTGenerator) Modality() Modality {
	return PT
}

// SOPClassUID returns the PET Image Storage SOP Class UID.
func (g *PTGenerator) SOPClassUID() string {
	return PETImageStorage
}

// GenerateSeriesParams picks a PET/CT scanner and its parameters.
func (g *PTGenerator) GenerateSeriesParams(rng *rand.Rand) SeriesParams {
	scanners := [][2]string{
		{"SIEMENS", "Biograph Vision"},
		{"GE MEDICAL SYSTEMS", "Discovery MI"},
	}
	scanner := scanners[rng.IntN(len(scanners))]

	return SeriesParams{
		Modality:            PT,
		Manufacturer:        scanner[0],
		Model:               scanner[1],
		PixelSpacing:        2.0 + rng.Float64()*2.0, // 2-4 mm
		SliceThickness:      3,
		WindowCenter:        5000,
		WindowWidth:         10000,
		Radiopharmaceutical: "Fluorodeoxyglucose",
		DecayCorrection:     "START",
	}
}

// PixelConfig returns PET pixel data configuration.
func (g *PTGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated:       16,
		BitsStored:          16,
		HighBit:             15,
		PixelRepresentation: 0,
		BaseValue:           200,
		MaxValue:            32767,
	}
}

// AppendModalityElements appends PT-specific DICOM elements to a dataset.
func (g *PTGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	ds.Elements = append(ds.Elements,
		mustNewElement(tagUnits, []string{"BQML"}),
		mustNewElement(tagDecayCorrection, []string{params.DecayCorrection}),
	)
	return nil
}
