package wbundle

// Limits bounds the resources a decode may consume.
type Limits struct {
	MaxDimension         int    // widest/tallest canvas accepted
	MaxHeaderLen         int    // header text bytes before the sentinel
	MaxEntries           int    // header records
	MaxEntryUncompressed uint64 // decompressed size of a single compressed entry
}

func defaultLimits() Limits {
	return Limits{
		MaxDimension:         DefaultMaxDimension,
		MaxHeaderLen:         4 << 20, // 4 MiB
		MaxEntries:           100_000,
		MaxEntryUncompressed: 512 << 20, // 512 MiB
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxDimension <= 0 {
		l.MaxDimension = d.MaxDimension
	}
	if l.MaxHeaderLen <= 0 {
		l.MaxHeaderLen = d.MaxHeaderLen
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = d.MaxEntries
	}
	if l.MaxEntryUncompressed == 0 {
		l.MaxEntryUncompressed = d.MaxEntryUncompressed
	}
	return l
}
