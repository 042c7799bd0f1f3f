// Package annotation defines the computer-vision value types stored by annostore.
//
// The set of storable kinds is closed: BBox, CompressedRLE, Pose, Image,
// DepthImage, Camera, GtInfo and Embedding all implement the sealed Value
// interface. ObjectAnnotation composes them into the record returned for one
// detected object; it is never stored as a unit.
//
// Constructors validate their input and return errors wrapping
// ErrInvalidValue. Value types own their data: accessors that return slices
// return copies.
package annotation
