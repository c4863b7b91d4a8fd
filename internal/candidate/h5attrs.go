package candidate

// #cgo LDFLAGS: -lhdf5
// #include <stdlib.h>
// #include "hdf5.h"
//
// static herr_t count_attr(hid_t loc, const char *name, const H5A_info_t *info, void *data) {
// 	(*(hsize_t *)data)++;
// 	return 0;
// }
//
// static int num_attrs(hid_t loc, hsize_t *n) {
// 	hsize_t idx = 0;
// 	*n = 0;
// 	return H5Aiterate2(loc, H5_INDEX_NAME, H5_ITER_INC, &idx, count_attr, n) < 0 ? -1 : 0;
// }
import "C"

import (
	"fmt"
	"unsafe"
)

// attrNamesOf lists the attributes attached to the object loc in name
// order. The binding has no attribute iteration, so this goes to the C API.
// Callers hold libMu.
func attrNamesOf(loc int64) ([]string, error) {
	id := C.hid_t(loc)
	var n C.hsize_t
	if C.num_attrs(id, &n) < 0 {
		return nil, fmt.Errorf("iterate attributes of object %d", loc)
	}

	dot := C.CString(".")
	defer C.free(unsafe.Pointer(dot))

	names := make([]string, 0, int(n))
	for i := C.hsize_t(0); i < n; i++ {
		size := C.H5Aget_name_by_idx(id, dot, C.H5_INDEX_NAME, C.H5_ITER_INC, i, nil, 0, C.H5P_DEFAULT)
		if size < 0 {
			return nil, fmt.Errorf("name of attribute %d", i)
		}
		buf := (*C.char)(C.malloc(C.size_t(size) + 1))
		got := C.H5Aget_name_by_idx(id, dot, C.H5_INDEX_NAME, C.H5_ITER_INC, i, buf, C.size_t(size)+1, C.H5P_DEFAULT)
		if got < 0 {
			C.free(unsafe.Pointer(buf))
			return nil, fmt.Errorf("name of attribute %d", i)
		}
		names = append(names, C.GoStringN(buf, C.int(got)))
		C.free(unsafe.Pointer(buf))
	}
	return names, nil
}
