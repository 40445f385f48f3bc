package buildsys

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MarkerFile is written into the build directory after a successful configure
const MarkerFile = ".projmgr.yml"

func writeMarker(buildDir string, marker Marker) error {
	data, err := yaml.Marshal(&marker)
	if err != nil {
		return eris.Wrap(err, "failed to encode marker")
	}

	path := filepath.Join(buildDir, MarkerFile)
	err = ioutil.WriteFile(path, data, 0660)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// readMarker returns nil without an error if the marker doesn't exist
func readMarker(buildDir string) (*Marker, error) {
	path := filepath.Join(buildDir, MarkerFile)
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}

	var marker Marker
	err = yaml.Unmarshal(data, &marker)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	return &marker, nil
}
