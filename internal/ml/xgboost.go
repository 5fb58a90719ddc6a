package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"flight-delay/internal/common"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// XGBoostEngine trains with the xgboost Python package in a subprocess and
// converts the resulting booster dump into an Ensemble.
type XGBoostEngine struct {
	params     BoosterParams
	pythonPath string
	scriptDir  string
	timeout    time.Duration
}

type trainingParams struct {
	BoosterParams
	ScalePosWeight float64 `json:"scale_pos_weight"`
}

type trainingRequest struct {
	Features [][]float64    `json:"features"`
	Labels   []int          `json:"labels"`
	Params   trainingParams `json:"params"`
}

type trainingResponse struct {
	BaseScore float64           `json:"base_score"`
	Trees     []json.RawMessage `json:"trees"`
	Error     string            `json:"error,omitempty"`
}

// dumpNode is one node of xgboost's get_dump(dump_format="json") output.
type dumpNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split"`
	SplitCondition float64    `json:"split_condition"`
	Yes            int        `json:"yes"`
	No             int        `json:"no"`
	Leaf           *float64   `json:"leaf"`
	Children       []dumpNode `json:"children"`
}

// NewXGBoostEngine locates a Python interpreter with xgboost installed (unless
// pythonPath is given). Each Fit writes its training script into a fresh file
// under scriptDir, or the system temp dir when scriptDir is empty.
func NewXGBoostEngine(params BoosterParams, pythonPath, scriptDir string, timeout time.Duration) (*XGBoostEngine, error) {
	if pythonPath == "" {
		var err error
		pythonPath, err = findPython()
		if err != nil {
			return nil, err
		}
	} else if _, err := exec.LookPath(pythonPath); err != nil {
		return nil, fmt.Errorf("python interpreter %q: %w", pythonPath, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	log.Info().
		Str("python_path", pythonPath).
		Str("script_dir", scriptDir).
		Msg("xgboost engine ready")

	return &XGBoostEngine{
		params:     params,
		pythonPath: pythonPath,
		scriptDir:  scriptDir,
		timeout:    timeout,
	}, nil
}

func (e *XGBoostEngine) Name() string { return common.EngineXGBoost }

func (e *XGBoostEngine) Fit(ctx context.Context, x *mat.Dense, y []int, scalePosWeight float64) (*Ensemble, error) {
	rows, cols := x.Dims()
	req := trainingRequest{
		Features: make([][]float64, rows),
		Labels:   y,
		Params:   trainingParams{BoosterParams: e.params, ScalePosWeight: scalePosWeight},
	}
	for i := range req.Features {
		req.Features[i] = x.RawRowView(i)
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal training request: %w", err)
	}

	scriptPath, err := writeTrainingScript(e.scriptDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create training script: %w", err)
	}
	defer os.Remove(scriptPath)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.pythonPath, scriptPath)
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("python_path", e.pythonPath).
			Str("script_path", scriptPath).
			Str("stderr", stderr.String()).
			Dur("timeout", e.timeout).
			Bool("context_cancelled", ctx.Err() != nil).
			Msg("xgboost training process failed")

		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("xgboost training timeout after %v", e.timeout)
		}
		if msg := responseError(stdout.Bytes()); msg != "" {
			return nil, fmt.Errorf("xgboost training error: %s", msg)
		}
		return nil, fmt.Errorf("xgboost training failed: %w, stderr: %s", err, stderr.String())
	}

	var resp trainingResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse training response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("xgboost training error: %s", resp.Error)
	}

	return ensembleFromDump(resp.BaseScore, cols, resp.Trees)
}

func responseError(stdout []byte) string {
	var resp trainingResponse
	if json.Unmarshal(stdout, &resp) != nil {
		return ""
	}
	return resp.Error
}

// ensembleFromDump converts xgboost json tree dumps into an Ensemble.
func ensembleFromDump(baseScore float64, numFeatures int, trees []json.RawMessage) (*Ensemble, error) {
	ensemble := &Ensemble{BaseScore: baseScore, NumFeatures: numFeatures}
	for i, raw := range trees {
		var root dumpNode
		if err := json.Unmarshal(raw, &root); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		node, err := convertDumpNode(root, numFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		ensemble.Trees = append(ensemble.Trees, node)
	}
	return ensemble, nil
}

func convertDumpNode(d dumpNode, numFeatures int) (*Node, error) {
	if d.Leaf != nil {
		return &Node{Leaf: *d.Leaf}, nil
	}

	feature, err := strconv.Atoi(strings.TrimPrefix(d.Split, "f"))
	if err != nil {
		return nil, fmt.Errorf("node %d: unexpected split feature %q", d.NodeID, d.Split)
	}
	if err := checkFeature(feature, numFeatures); err != nil {
		return nil, fmt.Errorf("node %d: %w", d.NodeID, err)
	}

	var yes, no *dumpNode
	for i := range d.Children {
		switch d.Children[i].NodeID {
		case d.Yes:
			yes = &d.Children[i]
		case d.No:
			no = &d.Children[i]
		}
	}
	if yes == nil || no == nil {
		return nil, fmt.Errorf("node %d: missing children", d.NodeID)
	}

	left, err := convertDumpNode(*yes, numFeatures)
	if err != nil {
		return nil, err
	}
	right, err := convertDumpNode(*no, numFeatures)
	if err != nil {
		return nil, err
	}
	return &Node{Feature: feature, Threshold: d.SplitCondition, Left: left, Right: right}, nil
}

func findPython() (string, error) {
	var candidates []string

	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates = append(candidates,
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		)
	}
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	for _, python := range candidates {
		if _, err := os.Stat(python); err != nil {
			continue
		}
		cmd := exec.Command(python, "-c", "import sys, xgboost; print('Python', sys.version)")
		if output, err := cmd.Output(); err == nil && strings.Contains(string(output), "Python 3") {
			return python, nil
		}
	}

	return "", fmt.Errorf("no Python 3 interpreter with xgboost found")
}

// writeTrainingScript creates a uniquely named script file in dir so concurrent
// trainings never share or follow a pre-existing path.
func writeTrainingScript(dir string) (string, error) {
	f, err := os.CreateTemp(dir, "xgb_train_*.py")
	if err != nil {
		return "", err
	}
	path := f.Name()

	_, err = f.WriteString(trainingScript)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(path, 0o700)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

const trainingScript = `#!/usr/bin/env python3
"""
xgboost training script for the flight delay model.
Reads a JSON training request on stdin and prints the booster dump as JSON.
"""
import sys
import json

try:
    import numpy as np
    import xgboost as xgb
except ImportError as e:
    print(json.dumps({"error": f"xgboost not installed: {e}"}))
    sys.exit(1)


def base_score_of(booster):
    config = json.loads(booster.save_config())
    value = config["learner"]["learner_model_param"]["base_score"]
    return float(str(value).strip("[]"))


def main():
    try:
        request = json.load(sys.stdin)
        features = np.array(request["features"], dtype=np.float32)
        labels = np.array(request["labels"], dtype=np.int32)
        params = request["params"]

        model = xgb.XGBClassifier(
            n_estimators=params["n_estimators"],
            max_depth=params["max_depth"],
            learning_rate=params["learning_rate"],
            reg_lambda=params["reg_lambda"],
            min_child_weight=params["min_child_weight"],
            gamma=params["gamma"],
            base_score=params["base_score"],
            random_state=params["seed"],
            scale_pos_weight=params["scale_pos_weight"],
            eval_metric="logloss",
        )
        model.fit(features, labels)

        booster = model.get_booster()
        trees = [json.loads(t) for t in booster.get_dump(dump_format="json")]
        print(json.dumps({"base_score": base_score_of(booster), "trees": trees}))

    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`
