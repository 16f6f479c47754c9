// Package record holds the Patient → Study → Series → Instance hierarchy
// built by a scan. Each level owns its children; lookups are by declared
// unique identifier.
package record

// Patient is one PatientID and the studies filed under it.
type Patient struct {
	PatientID   string
	PatientName string

	studies index[*Study]
}

// NewPatient creates a patient with no studies.
func NewPatient(id, name string) *Patient {
	return &Patient{PatientID: id, PatientName: name}
}

// AddStudy adds st unless a study with the same UID exists.
func (p *Patient) AddStudy(st *Study) bool {
	return p.studies.put(st.StudyUID, st)
}

// Study returns the study with the given StudyInstanceUID.
func (p *Patient) Study(studyUID string) (*Study, bool) {
	return p.studies.get(studyUID)
}

// Studies returns the studies in insertion order.
func (p *Patient) Studies() []*Study {
	return p.studies.values()
}

// Collection is the root of a scan result.
type Collection struct {
	patients index[*Patient]
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// AddPatient adds p unless a patient with the same ID exists.
func (c *Collection) AddPatient(p *Patient) bool {
	return c.patients.put(p.PatientID, p)
}

// Patient returns the patient with the given PatientID.
func (c *Collection) Patient(id string) (*Patient, bool) {
	return c.patients.get(id)
}

// Patients returns the patients in insertion order.
func (c *Collection) Patients() []*Patient {
	return c.patients.values()
}

// Counts summarises the size of a collection.
type Counts struct {
	Patients  int `json:"patients" yaml:"patients"`
	Studies   int `json:"studies" yaml:"studies"`
	Series    int `json:"series" yaml:"series"`
	Instances int `json:"instances" yaml:"instances"`
}

// Counts walks the collection and counts every level.
func (c *Collection) Counts() Counts {
	var n Counts
	for _, p := range c.Patients() {
		n.Patients++
		for _, st := range p.Studies() {
			n.Studies++
			for _, s := range st.AllSeries() {
				n.Series++
				n.Instances += s.Len()
			}
		}
	}
	return n
}
