package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a bundle Store implementation using environment variables.
//
//	OCEANCURATE_BLOB_DRIVER: fs|s3|memory (default fs)
//	OCEANCURATE_BLOB_FS_ROOT: directory root when driver=fs (default ./bundledata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("OCEANCURATE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("OCEANCURATE_BLOB_FS_ROOT")
		if root == "" {
			root = "./bundledata"
		}
		return NewFSStore(root)
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown bundle store driver %s", driver)
	}
}
