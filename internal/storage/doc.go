// Package storage provides the destinations downloaded episodes are written to.
//
// [Dir] writes into a local directory (by default "downloads" under the
// working directory). [Bucket] writes objects into any gocloud.dev/blob
// bucket, so the same run can target S3, GCS or a file:// bucket.
//
// Both hand out a [Writer] whose content becomes visible under the final
// name only on Commit; Abort leaves nothing behind. A partially downloaded
// episode is therefore never mistaken for a finished one on the next run.
package storage
