//go:build windows

package usnjrnl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ioctl codes for the volume and MFT operations this package drives via
// DeviceIoControl, taken from the winioctl.h reference the USN journal API
// is documented against.
const (
	fsctlQueryUsnJournal   = 0x000900F4
	fsctlReadUsnJournal    = 0x000900BB
	fsctlGetNtfsVolumeData = 0x00090064
	fsctlGetNtfsFileRecord = 0x00090068

	maxReadBufferSize = 65536
)

// ntfsFileRecordInputBuffer is NTFS_FILE_RECORD_INPUT_BUFFER: the request
// side of FSCTL_GET_NTFS_FILE_RECORD.
type ntfsFileRecordInputBuffer struct {
	FileReferenceNumber uint64
}

// ntfsFileRecordOutputHeader is the fixed prefix of
// NTFS_FILE_RECORD_OUTPUT_BUFFER; the record bytes follow immediately
// after in the same buffer.
type ntfsFileRecordOutputHeader struct {
	FileReferenceNumber uint64
	FileRecordLength    uint32
	_                    uint32 // padding to align the trailing buffer on Win64
}

// WindowsVolumeAdapter drives the USN journal and MFT ioctls against a
// live NTFS volume handle.
type WindowsVolumeAdapter struct {
	handle windows.Handle
	path   string
}

// OpenVolume opens a handle to a volume root such as `\\.\C:` suitable for
// FSCTL_* calls.
func OpenVolume(path string) (*WindowsVolumeAdapter, error) {
	h, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return nil, wrapError(WindowsError, fmt.Sprintf("opening volume %s", path), err)
	}
	return &WindowsVolumeAdapter{handle: h, path: path}, nil
}

// Close releases the underlying volume handle.
func (a *WindowsVolumeAdapter) Close() error {
	return windows.CloseHandle(a.handle)
}

// QueryJournal issues FSCTL_QUERY_USN_JOURNAL and decodes whichever
// USN_JOURNAL_DATA variant the volume returned.
func (a *WindowsVolumeAdapter) QueryJournal() (*UsnJournalData, error) {
	buf := make([]byte, 80)
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		a.handle,
		fsctlQueryUsnJournal,
		nil, 0,
		&buf[0], uint32(len(buf)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, wrapError(WindowsError, "FSCTL_QUERY_USN_JOURNAL", err)
	}
	return DecodeUsnJournalData(buf[:bytesReturned])
}

// ReadJournal issues FSCTL_READ_USN_JOURNAL and returns the next_usn
// prefix plus the raw record bytes that follow it.
func (a *WindowsVolumeAdapter) ReadJournal(req *ReadUsnJournalRequest) (uint64, []byte, error) {
	in := struct {
		StartUsn          uint64
		ReasonMask        uint32
		ReturnOnlyOnClose uint32
		Timeout           uint64
		BytesToWaitFor    uint64
		UsnJournalID      uint64
	}{
		StartUsn:     req.StartUsn,
		ReasonMask:   req.ReasonMask,
		UsnJournalID: req.UsnJournalID,
	}

	buf := make([]byte, maxReadBufferSize)
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		a.handle,
		fsctlReadUsnJournal,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return 0, nil, wrapError(WindowsError, "FSCTL_READ_USN_JOURNAL", err)
	}
	if bytesReturned < 8 {
		return req.StartUsn, nil, nil
	}

	nextUsn := readUint64LE(buf[0:8])
	return nextUsn, buf[8:bytesReturned], nil
}

// GetFileRecord issues FSCTL_GET_NTFS_FILE_RECORD for a specific MFT
// entry. The returned buffer already has fixups applied by the filesystem
// driver, so ParseMftRecord is called with applyFixup=false.
func (a *WindowsVolumeAdapter) GetFileRecord(entry uint64) (*MftRecord, error) {
	in := ntfsFileRecordInputBuffer{FileReferenceNumber: entry}
	buf := make([]byte, 8+4+4+4096)

	var bytesReturned uint32
	err := windows.DeviceIoControl(
		a.handle,
		fsctlGetNtfsFileRecord,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, wrapError(WindowsError, "FSCTL_GET_NTFS_FILE_RECORD", err)
	}

	var header ntfsFileRecordOutputHeader
	header.FileReferenceNumber = readUint64LE(buf[0:8])
	header.FileRecordLength = readUint32LE(buf[8:12])

	recordStart := 16
	recordEnd := recordStart + int(header.FileRecordLength)
	if recordEnd > len(buf) {
		recordEnd = len(buf)
	}

	recordNumber := header.FileReferenceNumber & 0x0000FFFFFFFFFFFF
	return ParseMftRecord(uint32(recordNumber), buf[recordStart:recordEnd], false)
}

// GetVolumeData issues FSCTL_GET_NTFS_VOLUME_DATA.
func (a *WindowsVolumeAdapter) GetVolumeData() (*NtfsVolumeData, error) {
	buf := make([]byte, 128)
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		a.handle,
		fsctlGetNtfsVolumeData,
		nil, 0,
		&buf[0], uint32(len(buf)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return nil, wrapError(WindowsError, "FSCTL_GET_NTFS_VOLUME_DATA", err)
	}
	return DecodeNtfsVolumeData(buf[:bytesReturned])
}
