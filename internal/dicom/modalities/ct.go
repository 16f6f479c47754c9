package modalities

import (
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// CTGenerator generates planning CT metadata.
type CTGenerator struct{}

// Modality returns the CT modality type.
func (g *CTGenerator) Modality() Modality {
	return CT
}

// SOPClassUID returns the CT Image Storage SOP Class UID.
func (g *CTGenerator) SOPClassUID() string {
	return CTImageStorage
}

var ctScanners = [][2]string{
	{"SIEMENS", "SOMATOM Confidence RT Pro"},
	{"GE MEDICAL SYSTEMS", "Optima CT580 W"},
	{"PHILIPS", "Big Bore RT"},
	{"CANON", "Aquilion LB"},
}

// GenerateSeriesParams picks a wide-bore planning CT and its parameters.
func (g *CTGenerator) GenerateSeriesParams(rng *rand.Rand) SeriesParams {
	scanner := ctScanners[rng.IntN(len(ctScanners))]
	kvpOptions := []float64{100, 120, 140}

	return SeriesParams{
		Modality:         CT,
		Manufacturer:     scanner[0],
		Model:            scanner[1],
		PixelSpacing:     0.9 + rng.Float64()*0.4, // 0.9-1.3 mm
		SliceThickness:   []float64{1.5, 2, 2.5, 3}[rng.IntN(4)],
		KVP:              kvpOptions[rng.IntN(len(kvpOptions))],
		RescaleIntercept: -1024,
		RescaleSlope:     1,
		WindowCenter:     40,
		WindowWidth:      400,
	}
}

// PixelConfig returns CT pixel data configuration.
func (g *CTGenerator) PixelConfig() PixelConfig {
	return PixelConfig{
		BitsAllocated:       16,
		BitsStored:          12,
		HighBit:             11,
		PixelRepresentation: 0,
		BaseValue:           1024, // water with a -1024 intercept
		MaxValue:            4095,
	}
}

// AppendModalityElements appends CT-specific DICOM elements to a dataset.
func (g *CTGenerator) AppendModalityElements(ds *dicom.Dataset, params SeriesParams) error {
	ds.Elements = append(ds.Elements,
		mustNewElement(tag.KVP, []string{floatToDS(params.KVP)}),
		mustNewElement(tag.RescaleIntercept, []string{floatToDS(params.RescaleIntercept)}),
		mustNewElement(tag.RescaleSlope, []string{floatToDS(params.RescaleSlope)}),
		mustNewElement(tag.RescaleType, []string{"HU"}),
	)
	return nil
}
