// Package filesmanager provides a library for storing files, images and
// folders in a per-owner hierarchy with pluggable metadata and content
// backends.
//
// It exposes a single Service interface that validates and creates objects,
// toggles their visibility, and serves their bytes. Implementations of
// repositories (memory, Postgres, SQLite, MongoDB), content stores (memory,
// filesystem, S3), identity resolvers and job queues are provided under
// subpackages.
//
// Thumbnails
//
// Image uploads enqueue a ThumbnailJob. The thumbnail subpackage consumes
// those jobs out of band and writes one derivative per width in
// ThumbnailWidths next to the original blob, keyed by DerivativeKey.
//
// Visibility
//
// A private object is indistinguishable from a missing one for every caller
// except its owner: both surface as ErrNotFound.
package filesmanager
