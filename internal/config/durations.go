package config

import "time"

// RestartEvery returns the restarter interval.
func (s Sweep) RestartEvery() time.Duration {
	return time.Duration(s.RestartInterval) * time.Second
}

// ContentTypeEvery returns the content-type correction interval.
func (s Sweep) ContentTypeEvery() time.Duration {
	return time.Duration(s.ContentTypeInterval) * time.Second
}

// AlternateEvery returns the alternate backfill interval.
func (s Sweep) AlternateEvery() time.Duration {
	return time.Duration(s.AlternateInterval) * time.Second
}

// TempFileEvery returns the known-unit cleanup interval.
func (s Sweep) TempFileEvery() time.Duration {
	return time.Duration(s.TempFileInterval) * time.Second
}

// OrphanEvery returns the orphan scratch sweep interval.
func (s Sweep) OrphanEvery() time.Duration {
	return time.Duration(s.OrphanInterval) * time.Second
}

// OrphanAge returns the minimum age before a scratch file is an orphan.
func (s Sweep) OrphanAge() time.Duration {
	return time.Duration(s.OrphanAgeHours) * time.Hour
}
