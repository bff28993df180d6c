package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"regexp"

	"git.arvados.org/arvados.git/sdk/go/arvados"
	"git.arvados.org/arvados.git/sdk/go/arvadosclient"
	"git.arvados.org/arvados.git/sdk/go/keepclient"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

const (
	containerImage  = "tiletyper-runtime"
	containerBinary = "/mnt/cmd/tiletyper"
	containerOutput = "/mnt/output"
)

// arvadosContainerRunner resubmits a tiletyper command as an arvados
// container request. Input collections are mounted read-only under
// /mnt; results are the container's output collection.
type arvadosContainerRunner struct {
	Client      *arvados.Client
	Name        string
	ProjectUUID string
	VCPUs       int
	RAM         int64
	Priority    int
	Args        []string
	// collection UUID or PDH → mount point
	Mounts map[string]string
}

var collectionInPathRe = regexp.MustCompile(`^(.*/)?([0-9a-f]{32}\+[0-9]+|[0-9a-z]{5}-[0-9a-z]{5}-[0-9a-z]{15})(/.*)?$`)

// Run uploads this program if needed, submits a committed container
// request, and returns its UUID.
func (runner *arvadosContainerRunner) Run() (string, error) {
	if runner.ProjectUUID == "" {
		return "", errors.New("cannot run arvados container: ProjectUUID not provided")
	}
	cmdUUID, err := runner.makeCommandCollection()
	if err != nil {
		return "", err
	}
	var cr arvados.ContainerRequest
	err = runner.Client.RequestAndDecode(&cr, "POST", "arvados/v1/container_requests", nil, map[string]interface{}{
		"container_request": runner.containerRequest(cmdUUID),
	})
	if err != nil {
		return "", err
	}
	log.Printf("container request %s: %s", cr.UUID, runner.Name)
	return cr.UUID, nil
}

// containerRequest is the request body running runner.Args with the
// binary from collection cmdUUID.
func (runner *arvadosContainerRunner) containerRequest(cmdUUID string) map[string]interface{} {
	vcpus, priority := runner.VCPUs, runner.Priority
	if vcpus < 1 {
		vcpus = 1
	}
	if priority < 1 {
		priority = 1
	}
	mounts := map[string]map[string]interface{}{
		"/mnt/cmd": {
			"kind": "collection",
			"uuid": cmdUUID,
		},
		containerOutput: {
			"kind":     "tmp",
			"writable": true,
			"capacity": 10000000000,
		},
	}
	for id, mnt := range runner.Mounts {
		mounts[mnt] = map[string]interface{}{
			"kind": "collection",
			"uuid": id,
		}
	}
	return map[string]interface{}{
		"owner_uuid":      runner.ProjectUUID,
		"name":            runner.Name,
		"container_image": containerImage,
		"command":         append([]string{containerBinary}, runner.Args...),
		"mounts":          mounts,
		"use_existing":    true,
		"output_path":     containerOutput,
		"runtime_constraints": arvados.RuntimeConstraints{
			VCPUs:        vcpus,
			RAM:          runner.RAM,
			KeepCacheRAM: (1 << 26) * 2 * int64(vcpus),
		},
		"priority": priority,
		"state":    arvados.ContainerRequestStateCommitted,
	}
}

// TranslatePaths rewrites paths inside arvados collections
// (.../<uuid or PDH>/...) to their mount points in the container, and
// records the mounts needed. Empty and "-" paths are left alone.
func (runner *arvadosContainerRunner) TranslatePaths(paths ...*string) error {
	if runner.Mounts == nil {
		runner.Mounts = make(map[string]string)
	}
	for _, path := range paths {
		if *path == "" || *path == "-" {
			continue
		}
		m := collectionInPathRe.FindStringSubmatch(*path)
		if m == nil {
			return fmt.Errorf("cannot find uuid in path: %q", *path)
		}
		mnt, ok := runner.Mounts[m[2]]
		if !ok {
			mnt = "/mnt/" + m[2]
			runner.Mounts[m[2]] = mnt
		}
		*path = mnt + m[3]
	}
	return nil
}

// makeCommandCollection returns a collection holding the running
// binary, named after its BLAKE2b digest. An existing collection with
// that name in the project is reused.
func (runner *arvadosContainerRunner) makeCommandCollection() (string, error) {
	exe, err := ioutil.ReadFile("/proc/self/exe")
	if err != nil {
		return "", err
	}
	cname := fmt.Sprintf("tiletyper-%x", blake2b.Sum256(exe))
	if uuid, err := runner.findCollection(cname); err != nil {
		return "", err
	} else if uuid != "" {
		log.Printf("using existing collection %q named %q (did not verify whether content matches)", uuid, cname)
		return uuid, nil
	}
	log.Printf("writing tiletyper binary to new collection %q", cname)
	return runner.uploadCollection(cname, "tiletyper", exe)
}

func (runner *arvadosContainerRunner) findCollection(name string) (string, error) {
	var existing arvados.CollectionList
	err := runner.Client.RequestAndDecode(&existing, "GET", "arvados/v1/collections", nil, arvados.ListOptions{
		Limit: 1,
		Count: "none",
		Filters: []arvados.Filter{
			{Attr: "name", Operator: "=", Operand: name},
			{Attr: "owner_uuid", Operator: "=", Operand: runner.ProjectUUID},
		},
	})
	if err != nil || len(existing.Items) == 0 {
		return "", err
	}
	return existing.Items[0].UUID, nil
}

// uploadCollection saves data as an executable file in a new
// collection and returns the collection UUID.
func (runner *arvadosContainerRunner) uploadCollection(name, filename string, data []byte) (string, error) {
	ac, err := arvadosclient.New(runner.Client)
	if err != nil {
		return "", err
	}
	var coll arvados.Collection
	fs, err := coll.FileSystem(runner.Client, keepclient.New(ac))
	if err != nil {
		return "", err
	}
	f, err := fs.OpenFile(filename, os.O_CREATE|os.O_WRONLY, 0777)
	if err != nil {
		return "", err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	mtxt, err := fs.MarshalManifest(".")
	if err != nil {
		return "", err
	}
	err = runner.Client.RequestAndDecode(&coll, "POST", "arvados/v1/collections", nil, map[string]interface{}{
		"collection": map[string]interface{}{
			"owner_uuid":    runner.ProjectUUID,
			"manifest_text": mtxt,
			"name":          name,
		},
	})
	if err != nil {
		return "", err
	}
	log.Debugf("collection: %#v", coll)
	return coll.UUID, nil
}
