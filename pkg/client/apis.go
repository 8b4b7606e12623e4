package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/config"
	"github.com/rcpd/gridlevel/pkg/types"
)

func (c *Client) SetAdaptive(enabled bool) (string, error) {
	return c.Put("/adaptive", strconv.FormatBool(enabled))
}

func (c *Client) SetGuides(enabled bool) (string, error) {
	return c.Put("/guides", strconv.FormatBool(enabled))
}

func (c *Client) GetStatus() (*types.Status, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get status")
	}

	var st types.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal status")
	}
	return &st, nil
}

// PushSample hands one gravity sample to the daemon and returns how it was
// classified.
func (c *Client) PushSample(s centering.Sample) (*types.SampleResponse, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	ret, err := c.Post("/sample", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to post sample")
	}

	var resp types.SampleResponse
	if err := json.Unmarshal([]byte(ret), &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal sample response")
	}
	return &resp, nil
}

func (c *Client) PushFrame(f types.Frame) (*types.FrameResponse, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	ret, err := c.Post("/frame", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to post frame")
	}

	var resp types.FrameResponse
	if err := json.Unmarshal([]byte(ret), &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal frame response")
	}
	return &resp, nil
}

// Reset starts a new session and returns its ID.
func (c *Client) Reset() (string, error) {
	ret, err := c.Post("/reset", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to reset session")
	}
	return parseStringResponse(ret)
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return parseStringResponse(ret)
}

func parseStringResponse(resp string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(resp), &s); err != nil {
		return "", pkgerrors.Errorf("unexpected response: %s", resp)
	}
	return s, nil
}
