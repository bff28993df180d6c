package main

import (
	"bytes"

	"gopkg.in/check.v1"
)

type dockerSuite struct{}

var _ = check.Suite(&dockerSuite{})

func (s *dockerSuite) TestDockerfile(c *check.C) {
	var stdout, stderr bytes.Buffer
	exited := (&buildDockerImage{}).RunCommand("build-docker-image", []string{"-dry-run"}, &bytes.Buffer{}, &stdout, &stderr)
	c.Assert(exited, check.Equals, 0, check.Commentf("%s", stderr.String()))
	c.Check(stdout.String(), check.Equals, `FROM debian:10
RUN apt-get update
RUN DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends ca-certificates
`)

	stdout.Reset()
	exited = (&buildDockerImage{}).RunCommand("build-docker-image", []string{"-dry-run", "-base", "debian:11", "-scheme-dir", "testdata"}, &bytes.Buffer{}, &stdout, &stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `FROM debian:11\n(?s).*COPY schemes /schemes\nENV TILETYPER_SCHEME_DIR=/schemes\n`)
}
