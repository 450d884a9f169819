package archive

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	scope "github.com/next-exp/scope_daq/pkg"
)

type EventDataHDF5 struct {
	evt_number int32
	timestamp  uint64
}

type RunInfoHDF5 struct {
	run_id [STRLEN]byte
	sensor [STRLEN]byte
}

type CalibrationHDF5 struct {
	record_length int32
	x_increment   float64
	x_zero        float64
	pt_offset     float64
	y_multiplier  float64
	y_zero        float64
	y_offset      float64
}

type FitResultHDF5 struct {
	evt_number int32
	amplitude  float64
	centroid   float64
	width      float64
	integral   float64
}

const STRLEN = 40

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &scope.ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &scope.ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

// createChunked creates an extendible dataset along the first dimension.
func createChunked(group *hdf5.Group, name string, dtype *hdf5.Datatype, dims []uint, maxDims []uint,
	chunks []uint, compression int) (*hdf5.Dataset, error) {
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, fmt.Errorf("error creating dataspace of %s: %w", name, err)
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("error creating property list of %s: %w", name, err)
	}
	defer plist.Close()

	if err := plist.SetChunk(chunks); err != nil {
		return nil, fmt.Errorf("error setting chunks of %s: %w", name, err)
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, fmt.Errorf("error setting compression of %s: %w", name, err)
		}
	}

	return group.CreateDatasetWith(name, dtype, fileSpace, plist)
}

func create2dArray(group *hdf5.Group, name string, nSamples int, compression int) (*hdf5.Dataset, error) {
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	dims := []uint{0, uint(nSamples)}
	maxDims := []uint{uint(unlimitedDims), uint(nSamples)}
	chunks := []uint{1, uint(nSamples)}
	return createChunked(group, name, hdf5.T_NATIVE_DOUBLE, dims, maxDims, chunks, compression)
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &scope.ErrCreateTable{TableName: name, Err: err}
	}
	unlimitedDims := -1
	dims := []uint{0}
	maxDims := []uint{uint(unlimitedDims)}
	chunks := []uint{1024}
	dset, err := createChunked(group, name, dtype, dims, maxDims, chunks, compression)
	if err != nil {
		return nil, &scope.ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, counter int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, counter)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, counter int) error {
	length := uint(len(*data))
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	rows := uint(counter)
	if err := dataset.Resize([]uint{rows + length}); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{rows}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

func write2dArray(dataset *hdf5.Dataset, data *[]float64, counter int, nSamples int) error {
	if err := dataset.Resize([]uint{uint(counter) + 1, uint(nSamples)}); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	count := []uint{1, uint(nSamples)}
	if err := filespace.SelectHyperslab([]uint{uint(counter), 0}, nil, count, nil); err != nil {
		return err
	}

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}
