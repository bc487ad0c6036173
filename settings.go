package bitfield

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

const (
	// minimum and maximum values for the number of bits in each element of a
	// Packed array
	minimumWidthParam = 1
	maximumWidthParam = maximumFieldWidth

	// minimum and maximum values for the number of elements in a Packed array.
	// the upper bound keeps Width*Count within a 32 bit int.
	minimumCountParam = 1
	maximumCountParam = math.MaxInt32 / maximumWidthParam
)

// Settings are used to configure the shape of a Packed array.
type Settings struct {
	// Width is the number of bits dedicated to each element.  The minimum value
	// is 1 and the maximum value is 64.
	Width int

	// Count is the number of elements in the array.  The minimum value is 1
	// and the maximum value is 33,554,431.
	Count int
}

var defaultSettings *settings
var defaultSettingsLock sync.RWMutex

var settingsCache map[Settings]*settings
var settingsCacheLock sync.RWMutex

func init() {
	settingsCache = make(map[Settings]*settings)
}

// Defaults installs settings that will be used by the zero value Packed.  It
// recommended to call this function once at initialization time and never
// again.  It will return an error if the provided settings are invalid or if a
// different set of defaults has already been installed.
func Defaults(settings Settings) error {

	s, err := settings.toInternal()
	if err != nil {
		return err
	}

	defaultSettingsLock.Lock()
	defer defaultSettingsLock.Unlock()

	if defaultSettings != nil && s != defaultSettings {
		return errors.New("different default settings have already been installed")
	}

	defaultSettings = s

	return nil
}

// getDefaults will return the default settings or nil if they haven't been
// configured.
func getDefaults() *settings {
	defaultSettingsLock.RLock()
	defer defaultSettingsLock.RUnlock()
	return defaultSettings
}

type settings struct {
	width, count int

	// valueMask is a precomputed mask where the bottom-most width bits are set.
	valueMask uint64

	// sizeInBytes is the number of bytes needed to hold every element.
	sizeInBytes int
}

// toInternal translates Settings to settings, validating them in the process.
// The result is cached so that equal Settings share a single *settings.
func (s Settings) toInternal() (*settings, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	settingsCacheLock.RLock()
	cachedSettings := settingsCache[s]
	settingsCacheLock.RUnlock()

	if cachedSettings != nil {
		return cachedSettings, nil
	}

	settings := settings{
		width:       s.Width,
		count:       s.Count,
		valueMask:   mask[uint64](s.Width),
		sizeInBytes: s.sizeInBytes(),
	}

	// install the settings.  if another goroutine won the race, use its copy so
	// that pointer comparisons stay meaningful.
	settingsCacheLock.Lock()
	defer settingsCacheLock.Unlock()

	if cachedSettings = settingsCache[s]; cachedSettings != nil {
		return cachedSettings, nil
	}
	settingsCache[s] = &settings

	return &settings, nil
}

// validate ensures that all of the settings in s are within bounds.  It will
// return an error if any of them are not.
func (s *Settings) validate() error {

	if s.Width < minimumWidthParam {
		return errors.Errorf("Width is too small.  Requires at least %d but got %d", minimumWidthParam, s.Width)
	} else if s.Width > maximumWidthParam {
		return errors.Errorf("Width is too large.  Allows at most %d but got %d", maximumWidthParam, s.Width)
	}

	if s.Count < minimumCountParam {
		return errors.Errorf("Count is too small.  Requires at least %d but got %d", minimumCountParam, s.Count)
	} else if s.Count > maximumCountParam {
		return errors.Errorf("Count is too large.  Allows at most %d but got %d", maximumCountParam, s.Count)
	}

	return nil
}

// sizeInBytes returns the number of bytes needed to hold Count elements of
// Width bits.  s is assumed to be valid.
func (s *Settings) sizeInBytes() int {
	return divideBy8RoundUp(s.Width * s.Count)
}

// toExternal translates the internal settings back to their exported version.
func (s *settings) toExternal() Settings {
	return Settings{
		Width: s.width,
		Count: s.count,
	}
}
