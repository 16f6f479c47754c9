package synth

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/mrsinham/dicomtree/internal/dicom/modalities"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Options controls GenerateRTStudy.
type Options struct {
	OutputDir string
	Seed      int64 // 0 derives a seed from OutputDir
	Slices    int   // CT slices (default 8)
	Width     int   // default 64
	Height    int   // default 64

	PatientID        string // empty = generated
	PatientName      string // empty = generated
	StudyDescription string // empty = "RT Planning"

	WithPET    bool // add a PT series sharing the CT frame of reference
	OrphanPlan bool // add an RTPLAN referencing a structure set that does not exist
	OrphanDose bool // add an RTDOSE referencing a plan that does not exist
	Anonymous  int  // objects written without PatientID, one series each
	Junk       bool // hidden files, a text file and a truncated DICOM file
	DICOMDIR   bool // write a DICOMDIR index at the root

	Workers int // 0 = runtime.NumCPU()

	Quiet            bool                     // Suppress progress output
	ProgressCallback func(current, total int) // Optional callback for progress updates
}

// GeneratedFile describes one object written to disk.
type GeneratedFile struct {
	Path           string
	PatientID      string
	StudyUID       string
	SeriesUID      string
	SOPInstanceUID string
	SOPClassUID    string
	Modality       modalities.Modality
	SeriesNumber   int
	InstanceNumber int
}

// Study is what GenerateRTStudy wrote.
type Study struct {
	PatientID           string
	PatientName         string
	StudyUID            string
	FrameOfReferenceUID string

	CTSeriesUID string
	PTSeriesUID string

	StructSeriesUID   string
	StructInstanceUID string
	PlanSeriesUID     string
	PlanInstanceUID   string
	DoseSeriesUID     string
	DoseInstanceUID   string

	OrphanPlanSeriesUID string
	OrphanDoseSeriesUID string

	// Files lists every decodable object, in write order.
	Files []GeneratedFile
	// Ignored lists files a scan must not ingest (hidden, junk, DICOMDIR).
	Ignored []string
}

// Paths returns the path of every decodable object.
func (s *Study) Paths() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = f.Path
	}
	return out
}

// imageSpec carries what is needed to render the pixel data of one slice.
type imageSpec struct {
	gen    modalities.Generator
	params modalities.SeriesParams
	width  int
	height int
	slice  int
	seed   uint64
	label  string
}

// writeTask is one object to write.
type writeTask struct {
	index int
	file  GeneratedFile
	obj   Object
	image *imageSpec
}

// uidSource derives UIDs from a seeded stream so a seed reproduces the
// same study.
type uidSource struct {
	r io.Reader
}

func newUIDSource(seed uint64) *uidSource {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return &uidSource{r: rand.NewChaCha8(key)}
}

func (u *uidSource) next() string {
	id, err := uuid.NewRandomFromReader(u.r)
	if err != nil {
		return NewUID()
	}
	return uuidToUID(id)
}

// GenerateRTStudy writes one radiotherapy study under opts.OutputDir:
// a CT series, an RT Structure Set contouring it, an RT Plan referencing
// the structure set, and an RT Dose referencing the plan.
func GenerateRTStudy(opts Options) (*Study, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Slices <= 0 {
		opts.Slices = 8
	}
	if opts.Width <= 0 {
		opts.Width = 64
	}
	if opts.Height <= 0 {
		opts.Height = 64
	}
	if opts.StudyDescription == "" {
		opts.StudyDescription = "RT Planning"
	}
	if opts.Anonymous < 0 {
		return nil, fmt.Errorf("anonymous object count must be >= 0, got %d", opts.Anonymous)
	}

	seed := uint64(opts.Seed)
	if seed == 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(opts.OutputDir)) // hash.Write never returns an error
		seed = h.Sum64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	uids := newUIDSource(seed)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	st := &Study{
		PatientID:           opts.PatientID,
		PatientName:         opts.PatientName,
		StudyUID:            uids.next(),
		FrameOfReferenceUID: uids.next(),
	}
	if st.PatientID == "" {
		st.PatientID = patientID(rng)
	}
	if st.PatientName == "" {
		st.PatientName = patientName(rng)
	}

	b := &taskBuilder{opts: opts, study: st, uids: uids, root: filepath.Join(opts.OutputDir, "PT000000", "ST000000")}

	ctGen := modalities.GetGenerator(modalities.CT)
	st.CTSeriesUID = b.imageSeries(ctGen, ctGen.GenerateSeriesParams(rng), "Planning CT", seed)
	if opts.WithPET {
		ptGen := modalities.GetGenerator(modalities.PT)
		st.PTSeriesUID = b.imageSeries(ptGen, ptGen.GenerateSeriesParams(rng), "PET/CT FDG", seed+1)
	}

	st.StructSeriesUID, st.StructInstanceUID = b.rtObject(Object{
		Modality:                 modalities.RTSTRUCT,
		SeriesDescription:        "Structure Set",
		Label:                    "RS1",
		FrameOfReferenceUID:      st.FrameOfReferenceUID,
		ReferencedImageSeriesUID: st.CTSeriesUID,
	})
	st.PlanSeriesUID, st.PlanInstanceUID = b.rtObject(Object{
		Modality:                  modalities.RTPLAN,
		SeriesDescription:         "Plan",
		Label:                     "VMAT 70/35",
		FrameOfReferenceUID:       st.FrameOfReferenceUID,
		ReferencedRTSSInstanceUID: st.StructInstanceUID,
	})
	st.DoseSeriesUID, st.DoseInstanceUID = b.rtObject(Object{
		Modality:                    modalities.RTDOSE,
		SeriesDescription:           "Dose",
		FrameOfReferenceUID:         st.FrameOfReferenceUID,
		ReferencedRTPlanInstanceUID: st.PlanInstanceUID,
		ReferencedRTSSInstanceUID:   st.StructInstanceUID,
	})

	if opts.OrphanPlan {
		st.OrphanPlanSeriesUID, _ = b.rtObject(Object{
			Modality:                  modalities.RTPLAN,
			SeriesDescription:         "Plan (orphan)",
			Label:                     "ORPHAN",
			FrameOfReferenceUID:       st.FrameOfReferenceUID,
			ReferencedRTSSInstanceUID: uids.next(),
		})
	}
	if opts.OrphanDose {
		st.OrphanDoseSeriesUID, _ = b.rtObject(Object{
			Modality:                    modalities.RTDOSE,
			SeriesDescription:           "Dose (orphan)",
			FrameOfReferenceUID:         st.FrameOfReferenceUID,
			ReferencedRTPlanInstanceUID: uids.next(),
		})
	}

	for i := 0; i < opts.Anonymous; i++ {
		b.anonymous(i)
	}

	if err := b.run(); err != nil {
		return nil, err
	}

	if opts.Junk {
		junk, err := writeJunk(opts.OutputDir, st)
		if err != nil {
			return nil, fmt.Errorf("write junk files: %w", err)
		}
		st.Ignored = append(st.Ignored, junk...)
	}

	if opts.DICOMDIR {
		path, err := writeDICOMDIR(opts.OutputDir, st.Files)
		if err != nil {
			return nil, fmt.Errorf("write DICOMDIR: %w", err)
		}
		st.Ignored = append(st.Ignored, path)
	}

	if !opts.Quiet {
		fmt.Printf("✓ %d DICOM objects written to %s/\n", len(st.Files), opts.OutputDir)
	}
	return st, nil
}

// taskBuilder lays out series directories and queues write tasks.
type taskBuilder struct {
	opts   Options
	study  *Study
	uids   *uidSource
	root   string
	series int
	tasks  []writeTask
}

func (b *taskBuilder) nextSeriesDir() (string, int) {
	b.series++
	return filepath.Join(b.root, fmt.Sprintf("SE%06d", b.series-1)), b.series
}

func (b *taskBuilder) add(path string, obj Object, image *imageSpec) {
	b.tasks = append(b.tasks, writeTask{
		index: len(b.tasks),
		obj:   obj,
		image: image,
		file: GeneratedFile{
			Path:           path,
			PatientID:      obj.PatientID,
			StudyUID:       obj.StudyUID,
			SeriesUID:      obj.SeriesUID,
			SOPInstanceUID: obj.InstanceUID,
			SOPClassUID:    classUIDFor(obj.Modality),
			Modality:       obj.Modality,
			SeriesNumber:   obj.SeriesNumber,
			InstanceNumber: obj.InstanceNumber,
		},
	})
}

// base fills the patient and study fields shared by every object.
func (b *taskBuilder) base(obj Object) Object {
	obj.PatientID = b.study.PatientID
	obj.PatientName = b.study.PatientName
	obj.StudyUID = b.study.StudyUID
	obj.StudyDescription = b.opts.StudyDescription
	return obj
}

func (b *taskBuilder) imageSeries(gen modalities.Generator, params modalities.SeriesParams, desc string, seed uint64) string {
	dir, number := b.nextSeriesDir()
	seriesUID := b.uids.next()
	for i := 0; i < b.opts.Slices; i++ {
		obj := b.base(Object{
			SeriesUID:           seriesUID,
			SeriesDescription:   desc,
			SeriesNumber:        number,
			InstanceUID:         b.uids.next(),
			InstanceNumber:      i + 1,
			Modality:            gen.Modality(),
			FrameOfReferenceUID: b.study.FrameOfReferenceUID,
		})
		b.add(filepath.Join(dir, fmt.Sprintf("IM%06d", i+1)), obj, &imageSpec{
			gen:    gen,
			params: params,
			width:  b.opts.Width,
			height: b.opts.Height,
			slice:  i,
			seed:   seed + uint64(i)*7919,
			label:  fmt.Sprintf("%s %d/%d", gen.Modality(), i+1, b.opts.Slices),
		})
	}
	return seriesUID
}

func (b *taskBuilder) rtObject(obj Object) (seriesUID, instanceUID string) {
	dir, number := b.nextSeriesDir()
	obj = b.base(obj)
	obj.SeriesUID = b.uids.next()
	obj.SeriesNumber = number
	obj.InstanceUID = b.uids.next()
	obj.InstanceNumber = 1
	b.add(filepath.Join(dir, "IM000001"), obj, nil)
	return obj.SeriesUID, obj.InstanceUID
}

// anonymous queues a secondary capture style object with no patient module.
func (b *taskBuilder) anonymous(i int) {
	obj := Object{
		OmitPatient:       true,
		StudyUID:          b.uids.next(),
		SeriesUID:         b.uids.next(),
		SeriesDescription: "Unlabelled",
		SeriesNumber:      1,
		InstanceUID:       b.uids.next(),
		InstanceNumber:    1,
		Modality:          modalities.CT,
	}
	b.add(filepath.Join(b.opts.OutputDir, "UNSORTED", fmt.Sprintf("IM%06d", i+1)), obj, nil)
}

// run writes every queued task on a worker pool.
func (b *taskBuilder) run() error {
	tasks := b.tasks
	if len(tasks) == 0 {
		return nil
	}

	numWorkers := b.opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	taskChan := make(chan writeTask, len(tasks))
	resultChan := make(chan struct {
		index int
		err   error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				err := writeTaskFile(task)
				resultChan <- struct {
					index int
					err   error
				}{task.index, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write object %d: %w", result.index, result.err)
		}
		completed++
		if b.opts.ProgressCallback != nil {
			b.opts.ProgressCallback(completed, len(tasks))
		}
		if !b.opts.Quiet && (completed%10 == 0 || completed == len(tasks)) {
			fmt.Printf("  Progress: %d/%d (%.0f%%)\n", completed, len(tasks), float64(completed)/float64(len(tasks))*100)
		}
	}
	if firstErr != nil {
		return firstErr
	}

	for _, task := range tasks {
		b.study.Files = append(b.study.Files, task.file)
	}
	return nil
}

func writeTaskFile(task writeTask) error {
	if err := os.MkdirAll(filepath.Dir(task.file.Path), 0755); err != nil {
		return fmt.Errorf("create series directory: %w", err)
	}

	elems := task.obj.Elements()
	if task.image != nil {
		var err error
		elems, err = task.image.appendTo(elems)
		if err != nil {
			return err
		}
	}
	return writeDatasetToFile(task.file.Path, dicom.Dataset{Elements: elems})
}

// appendTo adds the image pixel module and modality specific elements.
func (im *imageSpec) appendTo(elems []*dicom.Element) ([]*dicom.Element, error) {
	cfg := im.gen.PixelConfig()
	p := im.params
	z := float64(im.slice) * p.SliceThickness

	ds := dicom.Dataset{Elements: append(elems,
		mustNewElement(tag.Manufacturer, []string{p.Manufacturer}),
		mustNewElement(tag.ManufacturerModelName, []string{p.Model}),
		mustNewElement(tag.PixelSpacing, []string{floatDS(p.PixelSpacing), floatDS(p.PixelSpacing)}),
		mustNewElement(tag.SliceThickness, []string{floatDS(p.SliceThickness)}),
		mustNewElement(tag.ImagePositionPatient, []string{"0", "0", floatDS(z)}),
		mustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
		mustNewElement(tag.SliceLocation, []string{floatDS(z)}),
		mustNewElement(tag.WindowCenter, []string{fmt.Sprintf("%.1f", p.WindowCenter)}),
		mustNewElement(tag.WindowWidth, []string{fmt.Sprintf("%.1f", p.WindowWidth)}),
		mustNewElement(tag.Rows, []int{im.height}),
		mustNewElement(tag.Columns, []int{im.width}),
		mustNewElement(tag.BitsAllocated, []int{int(cfg.BitsAllocated)}),
		mustNewElement(tag.BitsStored, []int{int(cfg.BitsStored)}),
		mustNewElement(tag.HighBit, []int{int(cfg.HighBit)}),
		mustNewElement(tag.PixelRepresentation, []int{int(cfg.PixelRepresentation)}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
	)}
	if err := im.gen.AppendModalityElements(&ds, p); err != nil {
		return nil, fmt.Errorf("append %s elements: %w", im.gen.Modality(), err)
	}

	pixels := slicePixels(cfg, im.width, im.height, im.seed, im.label)
	return append(ds.Elements, mustNewElement(tag.PixelData, pixels)), nil
}

func floatDS(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
