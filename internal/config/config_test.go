package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func writeConfig(c *qt.C, body string) string {
	p := filepath.Join(c.TempDir(), FileName)
	c.Assert(os.WriteFile(p, []byte(body), 0644), qt.IsNil)
	return p
}

func TestLoad(t *testing.T) {
	c := qt.New(t)
	c.Setenv("HOME", "/home/tester")

	p := writeConfig(c, `
[source]
backend = "ExifTool"
exiftool_path = "/usr/local/bin/exiftool"

[wipe]
copy = true
verify = false

[watch]
paths = ["~/Pictures", "# ~/Disabled", "/srv/in"]
extensions = ["JPG", ".png"]
exclude = ["*.tmp"]
recursive = true
min_age = "500ms"

[log]
level = "debug"
file = "~/logs/m.log"

[colors]
hotp = "#00FF00"
`)

	cfg, err := Load(p)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Path, qt.Equals, p)
	c.Assert(cfg.Source.Backend, qt.Equals, "exiftool")
	c.Assert(cfg.Source.ExiftoolPath, qt.Equals, "/usr/local/bin/exiftool")
	c.Assert(cfg.Wipe, qt.Equals, WipeConfig{Copy: true})
	c.Assert(cfg.Watch.Paths, qt.DeepEquals, []string{"/home/tester/Pictures", "/srv/in"})
	c.Assert(cfg.Watch.Extensions, qt.DeepEquals, []string{".jpg", ".png"})
	c.Assert(cfg.Watch.Recursive, qt.IsTrue)
	c.Assert(cfg.Watch.MinAge.Duration, qt.Equals, 500*time.Millisecond)
	c.Assert(cfg.Log.File, qt.Equals, "/home/tester/logs/m.log")
	c.Assert(cfg.Colors.HOTP, qt.Equals, "#00FF00")
	// untouched roles keep their defaults
	c.Assert(cfg.Colors.HEAT, qt.Equals, "#FF5C00")
}

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)
	c.Setenv("HOME", c.TempDir())

	wd, err := os.Getwd()
	c.Assert(err, qt.IsNil)
	c.Assert(os.Chdir(c.TempDir()), qt.IsNil)
	c.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Path, qt.Equals, "")
	c.Assert(cfg.Source.Backend, qt.Equals, "native")
	c.Assert(cfg.Wipe.Verify, qt.IsTrue)
	c.Assert(cfg.Watch.MinAge.Duration, qt.Equals, 2*time.Second)
}

func TestLoadErrors(t *testing.T) {
	c := qt.New(t)

	_, err := Load(filepath.Join(c.TempDir(), "missing.toml"))
	c.Assert(err, qt.ErrorMatches, `config not found: .*`)

	_, err = Load(writeConfig(c, "[source\n"))
	c.Assert(err, qt.ErrorMatches, `(?s)failed to parse config: .*`)

	_, err = Load(writeConfig(c, "[source]\nbackend = \"exiv2\"\n"))
	c.Assert(err, qt.ErrorMatches, `unknown source backend: exiv2`)

	_, err = Load(writeConfig(c, "[wipe]\ncopy = true\nbackup = true\n"))
	c.Assert(err, qt.ErrorMatches, `wipe.copy and wipe.backup are mutually exclusive`)

	_, err = Load(writeConfig(c, "[watch]\nmin_age = \"soon\"\n"))
	c.Assert(err, qt.ErrorMatches, `(?s)failed to parse config: .*invalid duration.*`)

	_, err = Load(writeConfig(c, "[wipe]\nshred = true\n"))
	c.Assert(err, qt.ErrorMatches, `unknown config keys in .*: wipe.shred`)

	_, err = Load(writeConfig(c, "[log]\nlevel = \"loud\"\n"))
	c.Assert(err, qt.ErrorMatches, `invalid log level "loud": .*`)
}

func TestApplyEnv(t *testing.T) {
	c := qt.New(t)

	cfg := Default()
	c.Setenv(EnvLogLevel, "")
	cfg.ApplyEnv()
	c.Assert(cfg.Log.Level, qt.Equals, "info")

	c.Setenv(EnvLogLevel, " debug ")
	cfg.ApplyEnv()
	c.Assert(cfg.Log.Level, qt.Equals, "debug")
	c.Assert(cfg.Validate(), qt.IsNil)

	c.Setenv(EnvLogLevel, "shout")
	cfg.ApplyEnv()
	c.Assert(cfg.Validate(), qt.ErrorMatches, `invalid log level "shout": .*`)
}

func TestSaveRoundTrip(t *testing.T) {
	c := qt.New(t)

	cfg := Default()
	cfg.Watch.Paths = []string{"/data/photos"}
	cfg.Watch.MinAge = Duration{5 * time.Second}
	cfg.Wipe.Secure = true

	p := filepath.Join(c.TempDir(), "nested", FileName)
	c.Assert(Save(cfg, p), qt.IsNil)

	loaded, err := Load(p)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.Watch.Paths, qt.DeepEquals, []string{"/data/photos"})
	c.Assert(loaded.Watch.MinAge.Duration, qt.Equals, 5*time.Second)
	c.Assert(loaded.Wipe.Secure, qt.IsTrue)
}

func TestSetupConfigDir(t *testing.T) {
	c := qt.New(t)
	home := c.TempDir()
	c.Setenv("HOME", home)

	dir, err := SetupConfigDir()
	c.Assert(err, qt.IsNil)
	c.Assert(dir, qt.Equals, filepath.Join(home, ".metaclean", "config"))
	info, err := os.Stat(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(info.IsDir(), qt.IsTrue)
}
