// Package mongotest starts a disposable MongoDB server in a Docker container
// for integration tests.
package mongotest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultImage is the MongoDB image started by Run.
const DefaultImage = "mongo:7"

// URIEnv points the tests at an already running server instead of Docker.
const URIEnv = "MONGO_TEST_URI"

var ErrDockerUnavailable = errors.New("docker daemon unavailable")

const mongoPort = nat.Port("27017/tcp")

// Container is a running MongoDB container.
type Container struct {
	ID  string
	URI string

	cli *client.Client
}

// Start pulls ref if needed, starts it with port 27017 bound to a random host
// port and waits until the server answers a ping.
func Start(ctx context.Context, ref string) (*Container, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}

	rc, err := cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("pull %s: %w", ref, err)
	}
	_, _ = io.Copy(io.Discard, rc)
	rc.Close()

	resp, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image:        ref,
			ExposedPorts: nat.PortSet{mongoPort: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				mongoPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: ""}},
			},
		}, nil, nil, "")
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("create container: %w", err)
	}

	c := &Container{ID: resp.ID, cli: cli}
	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("start container: %w", err)
	}

	inspect, err := cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("inspect container: %w", err)
	}
	bindings := inspect.NetworkSettings.Ports[mongoPort]
	if len(bindings) == 0 {
		c.Close(context.Background())
		return nil, fmt.Errorf("container %s exposes no binding for %s", resp.ID, mongoPort)
	}
	c.URI = fmt.Sprintf("mongodb://127.0.0.1:%s", bindings[0].HostPort)

	if err := waitReady(ctx, c.URI, 30*time.Second); err != nil {
		c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

// Close force-removes the container.
func (c *Container) Close(ctx context.Context) error {
	defer c.cli.Close()
	return c.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true})
}

// Run returns the URI of a MongoDB server for t. It uses URIEnv when set and
// otherwise starts a container that is removed when t finishes. The test is
// skipped when Docker is not reachable or -short is set.
func Run(t testing.TB) string {
	t.Helper()
	if uri := os.Getenv(URIEnv); uri != "" {
		return uri
	}
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := Start(ctx, DefaultImage)
	if errors.Is(err, ErrDockerUnavailable) {
		t.Skipf("skipping MongoDB integration test: %v", err)
	}
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(context.Background()); err != nil {
			t.Logf("remove mongo container %s: %v", c.ID, err)
		}
	})
	return c.URI
}

func waitReady(ctx context.Context, uri string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer mc.Disconnect(context.Background())

	for {
		pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
		err = mc.Ping(pingCtx, nil)
		pingCancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("mongo at %s not ready: %w", uri, err)
		case <-time.After(250 * time.Millisecond):
		}
	}
}
