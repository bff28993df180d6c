package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

var dockerfileTemplate = template.Must(template.New("Dockerfile").Parse(`FROM {{.Base}}
RUN apt-get update
RUN DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends ca-certificates
{{- if .SchemeDir}}
COPY schemes /schemes
ENV TILETYPER_SCHEME_DIR=/schemes
{{- end}}
`))

// buildDockerImage builds the image "subtype -project" runs in.
type buildDockerImage struct{}

func (cmd *buildDockerImage) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	tag := flags.String("tag", containerImage, "image `tag`")
	base := flags.String("base", "debian:10", "base `image`")
	schemeDir := flags.String("scheme-dir", "", "copy built-in scheme files from `dir` into the image")
	dryRun := flags.Bool("dry-run", false, "print the Dockerfile instead of building")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	data := struct{ Base, SchemeDir string }{*base, *schemeDir}
	if *dryRun {
		err = dockerfileTemplate.Execute(stdout, data)
		if err != nil {
			return 1
		}
		return 0
	}

	tmpdir, err := ioutil.TempDir("", "")
	if err != nil {
		return 1
	}
	defer os.RemoveAll(tmpdir)
	f, err := os.Create(filepath.Join(tmpdir, "Dockerfile"))
	if err != nil {
		return 1
	}
	err = dockerfileTemplate.Execute(f, data)
	f.Close()
	if err != nil {
		return 1
	}
	if *schemeDir != "" {
		err = exec.Command("cp", "-r", *schemeDir, filepath.Join(tmpdir, "schemes")).Run()
		if err != nil {
			err = fmt.Errorf("copy %s: %w", *schemeDir, err)
			return 1
		}
	}
	docker := exec.Command("docker", "build", "--tag="+*tag, tmpdir)
	docker.Stdout = stdout
	docker.Stderr = stderr
	err = docker.Run()
	if err != nil {
		return 1
	}
	return 0
}
