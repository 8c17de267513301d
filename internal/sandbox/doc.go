// Package sandbox creates isolated containers and starts a terminal-sharing
// agent inside them.
//
// DockerRuntime drives the docker (or podman) CLI:
//
//	docker run -d --name hydrenix-<ulid> --privileged --cap-add ... \
//	    --memory <ram> --cpus <cores> <image> sleep infinity
//	docker exec -t <id> tmate -F
//	docker stop <id> && docker rm -f <id>
//
// The agent prints status lines before its connection command. Extractor
// reads them with a bounded number of one-second waits and keeps the last
// line containing the connect marker but not the read-only marker, e.g.
//
//	ssh session read only: ssh ro-Ab3dE7@lon1.tmate.io   (rejected)
//	ssh session: ssh Xy9Kq2@lon1.tmate.io                (accepted)
package sandbox
