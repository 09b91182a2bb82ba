// Package filesystem provides a uniform per-user file storage abstraction
// over either a local hierarchical filesystem or S3-compatible object
// storage.
//
// Both backends expose identical directory semantics: the object-store
// backend emulates directories via key prefixes, delimiter listings, and
// zero-byte marker objects, so callers never care which backend serves them.
// Every instance is scoped to one user's root; the predefined top-level
// directories (config, data, artifact, output, log) always exist and
// self-heal after deletion.
//
// # Basic Usage
//
// Build a factory from configuration and derive per-user instances:
//
//	factory, err := filesystem.NewFactory(ctx, filesystem.Config{
//		Kind:         filesystem.KindS3,
//		Bucket:       "decode-cloud",
//		Region:       "eu-central-1",
//		UserDataRoot: "/data",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fsys, err := factory.ForUser(ctx, userID)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = fsys.CreateFile(ctx, "data/run1/frames.tif", body)
//
// # Listings
//
// Directory listings are lazy, finite sequences; recursive listings flatten
// nested prefixes into one iterator:
//
//	seq, err := fsys.ListDirectory(ctx, "data/", filesystem.Recursive())
//	if err != nil {
//		return err
//	}
//	for fi, err := range seq {
//		if err != nil {
//			return err
//		}
//		fmt.Println(fi.Path, fi.Size)
//	}
//
// # Errors
//
// Operations fail with the sentinel errors ErrNotFound, ErrNotADirectory,
// and ErrIsDirectory; callers discriminate with errors.Is. Transport errors
// from the backing store propagate unmodified - this layer never retries.
package filesystem
