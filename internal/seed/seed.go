// Package seed fills an empty store from a YAML file of starter posts.
package seed

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"newsdaily-web/internal/posts"
)

// File models a seed YAML document.
type File struct {
	Settings *posts.Settings `yaml:"settings"`
	Posts    []posts.Post    `yaml:"posts"`
}

// Target is what a seed file is applied to.
type Target interface {
	Seed(ps []posts.Post) (int, error)
	Settings() posts.Settings
	SaveSettings(s posts.Settings) error
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse seed")
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed %s", path)
	}
	return Parse(data)
}

// Apply seeds the posts when none are stored and writes the settings when
// none are set. It returns the number of posts written.
func Apply(f *File, target Target) (int, error) {
	n, err := target.Seed(f.Posts)
	if err != nil {
		return 0, err
	}
	if f.Settings != nil && target.Settings() == (posts.Settings{}) {
		if err := target.SaveSettings(*f.Settings); err != nil {
			return n, err
		}
	}
	return n, nil
}
