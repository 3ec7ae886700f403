// Package notify decides whether a newly received post should raise a
// desktop notification for one recipient session, composes its content,
// and delivers it.
//
// The pipeline is:
//
//	ShouldDeliver (eligibility + notify level)
//	  -> author lookup (local, then fetched)
//	  -> Composer (title, body, sound, URL)
//	  -> Router (companion bridge envelope, or browser notification + sound cue)
//
// Every collaborator with side effects (profile fetch, bridge, browser
// notification, sound, window) is an interface supplied by the caller,
// and all recipient state is a snapshot taken when the pipeline starts.
// Pipelines for different posts or recipients share nothing mutable and
// may run concurrently. A superseded pipeline is not cancelled.
package notify
