// Package asset resolves wave asset handles to files and decodes them into
// immutable PCM Data on background goroutines.
//
// The audio thread hands a Job to a Submitter without blocking and later
// polls Job.Ready; the decoded Data is published to it through the job's
// completion flag. Nothing in this package runs on the audio thread except
// Submit and Ready.
package asset
