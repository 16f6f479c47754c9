package record

import (
	"sort"
	"strings"

	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
)

// Instance is one DICOM object on disk.
type Instance struct {
	Path        string
	InstanceUID string
	ClassUID    string
	Modality    string
}

// Series is a set of instances sharing a SeriesInstanceUID.
//
// The role and the reference fields are fixed by the record that created the
// series; later instances only add themselves to the instance set.
type Series struct {
	SeriesUID           string
	Description         string
	FrameOfReferenceUID string
	Role                modalities.Role

	// RTSTRUCT: the image series it contours.
	ReferencedImageSeriesUID string
	// RTPLAN and RTDOSE: the RT Structure Set instance they target.
	ReferencedRTSSInstanceUID string
	// RTDOSE: the RT Plan instance it was computed for.
	ReferencedRTPlanInstanceUID string

	instances index[*Instance]
}

// NewSeries creates an empty series.
func NewSeries(seriesUID string, role modalities.Role) *Series {
	return &Series{SeriesUID: seriesUID, Role: role}
}

// AddInstance adds inst to the series. It returns false, leaving the series
// untouched, when an instance with the same InstanceUID is already present.
func (s *Series) AddInstance(inst *Instance) bool {
	return s.instances.put(inst.InstanceUID, inst)
}

// Instance returns the instance with the given InstanceUID.
func (s *Series) Instance(uid string) (*Instance, bool) {
	return s.instances.get(uid)
}

// HasInstance reports whether an instance with the given UID belongs to s.
func (s *Series) HasInstance(uid string) bool {
	_, ok := s.instances.get(uid)
	return ok
}

// Instances returns the instances in insertion order.
func (s *Series) Instances() []*Instance {
	return s.instances.values()
}

// Len returns the number of instances.
func (s *Series) Len() int {
	return s.instances.len()
}

// Type returns the modality of the series: a single value when every
// instance agrees, the set of modalities met otherwise.
func (s *Series) Type() SeriesType {
	seen := make(map[string]bool)
	var mods []string
	for _, inst := range s.instances.values() {
		if !seen[inst.Modality] {
			seen[inst.Modality] = true
			mods = append(mods, inst.Modality)
		}
	}
	sort.Strings(mods)
	return SeriesType{modalities: mods}
}

// SeriesType is either a single modality or a set of modalities.
type SeriesType struct {
	modalities []string
}

// Single returns the modality when the series is homogeneous.
func (t SeriesType) Single() (string, bool) {
	if len(t.modalities) == 1 {
		return t.modalities[0], true
	}
	return "", false
}

// Set returns every modality met, sorted.
func (t SeriesType) Set() []string {
	return append([]string(nil), t.modalities...)
}

// String renders a single modality as is and a set as "{A, B}".
func (t SeriesType) String() string {
	if m, ok := t.Single(); ok {
		return m
	}
	return "{" + strings.Join(t.modalities, ", ") + "}"
}
