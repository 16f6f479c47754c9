package record

import "github.com/mrsinham/dicomtree/internal/dicom/modalities"

// Bucket maps a bucket key to a non-empty ordered list of series. Keys and
// per-key lists keep insertion order.
type Bucket struct {
	lists index[[]*Series]
}

// Add appends s to the list stored under key.
func (b *Bucket) Add(key string, s *Series) {
	if list, ok := b.lists.get(key); ok {
		b.lists.m[key] = append(list, s)
		return
	}
	b.lists.put(key, []*Series{s})
}

// Keys returns the bucket keys in insertion order.
func (b *Bucket) Keys() []string {
	return append([]string(nil), b.lists.keys...)
}

// Get returns the series stored under key.
func (b *Bucket) Get(key string) []*Series {
	list, _ := b.lists.get(key)
	return list
}

// Has reports whether key is present.
func (b *Bucket) Has(key string) bool {
	_, ok := b.lists.get(key)
	return ok
}

// Len returns the number of keys.
func (b *Bucket) Len() int {
	return b.lists.len()
}

// All returns every series in key order, then list order.
func (b *Bucket) All() []*Series {
	var out []*Series
	for _, list := range b.lists.values() {
		out = append(out, list...)
	}
	return out
}

// Study groups the series of one StudyInstanceUID into four buckets.
type Study struct {
	StudyUID    string
	Description string

	// ImageSeries is keyed by the series' own SeriesInstanceUID.
	ImageSeries Bucket
	// RTStruct is keyed by the referenced image SeriesInstanceUID ("" when absent).
	RTStruct Bucket
	// RTPlan is keyed by the referenced RT Structure Set SOPInstanceUID.
	RTPlan Bucket
	// RTDose is keyed by the referenced RT Plan SOPInstanceUID.
	RTDose Bucket

	series index[*Series]
}

// NewStudy creates an empty study.
func NewStudy(studyUID, description string) *Study {
	return &Study{StudyUID: studyUID, Description: description}
}

// BucketKey returns the key under which s is filed.
// Image and unclassified series are keyed by their own Series UID.
func BucketKey(s *Series) string {
	if !s.Role.IsRT() {
		return s.SeriesUID
	}
	switch s.Role {
	case modalities.RoleRTStruct:
		return s.ReferencedImageSeriesUID
	case modalities.RoleRTPlan:
		return s.ReferencedRTSSInstanceUID
	case modalities.RoleRTDose:
		return s.ReferencedRTPlanInstanceUID
	}
	return s.SeriesUID
}

// BucketFor returns the bucket a series of the given role is filed in.
// Image and unclassified series share the image bucket.
func (st *Study) BucketFor(role modalities.Role) *Bucket {
	switch role {
	case modalities.RoleRTStruct:
		return &st.RTStruct
	case modalities.RoleRTPlan:
		return &st.RTPlan
	case modalities.RoleRTDose:
		return &st.RTDose
	default:
		return &st.ImageSeries
	}
}

// AddSeries files s in the bucket matching its role. It returns false when a
// series with the same SeriesInstanceUID already exists in the study.
func (st *Study) AddSeries(s *Series) bool {
	if !st.series.put(s.SeriesUID, s) {
		return false
	}
	st.BucketFor(s.Role).Add(BucketKey(s), s)
	return true
}

// Series returns the series with the given SeriesInstanceUID.
func (st *Study) Series(seriesUID string) (*Series, bool) {
	return st.series.get(seriesUID)
}

// AllSeries returns the series bucket by bucket: image, RTSTRUCT, RTPLAN,
// RTDOSE.
func (st *Study) AllSeries() []*Series {
	var out []*Series
	for _, b := range []*Bucket{&st.ImageSeries, &st.RTStruct, &st.RTPlan, &st.RTDose} {
		out = append(out, b.All()...)
	}
	return out
}

// NumSeries returns the number of series in the study.
func (st *Study) NumSeries() int {
	return st.series.len()
}
