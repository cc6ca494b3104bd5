package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"pulsegrid-client/internal/api"
	"pulsegrid-client/internal/config"
	"pulsegrid-client/internal/debounce"
	"pulsegrid-client/internal/logger"
	"pulsegrid-client/internal/models"
	"pulsegrid-client/internal/roster"
	"pulsegrid-client/internal/search"
	"pulsegrid-client/internal/session"
	"pulsegrid-client/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "pulsegrid-client")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting pulsegrid-client",
		zap.String("api_base_url", cfg.API.BaseURL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 名册缓存：未启用 Redis 时退化为进程内缓存
	var kv store.KV = store.NewMemoryKV()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
			defer redisClient.Close()
		}
	}

	// 组装各组件
	client := api.NewClient(cfg.API.BaseURL, cfg.APITimeout(), log)
	deb := debounce.NewCoordinator()
	defer deb.Stop()

	ctrl := session.NewController(client, log)
	idx := search.NewIndex(client, deb, cfg.SearchDelay(), log)
	similar := search.NewSimilarLookup(client, ctrl, deb, cfg.SimilarDelay(), log)
	rosterLoader := roster.NewLoader(client, kv, cfg.RosterTTL(), log)

	// 保存/删除成功 → 侧边栏重查
	go idx.WatchRefresh(ctx, ctrl.RefreshSignals())

	// 控制台命令循环（呈现层替身）
	done := make(chan struct{})
	go func() {
		defer close(done)
		runConsole(ctx, ctrl, idx, similar, rosterLoader)
	}()

	// 等待退出
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case <-done:
	}
	cancel()
	log.Info("Client stopped")
}

// runConsole 从标准输入读取用户意图并转发给会话控制器/搜索侧
func runConsole(ctx context.Context, ctrl *session.Controller, idx *search.Index, similar *search.SimilarLookup, rosterLoader *roster.Loader) {
	fmt.Println("脉象九宫格病历录入（输入 help 查看命令）")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()

		case "search":
			idx.QueryChanged(ctx, strings.Join(args, " "))

		case "range":
			if len(args) != 2 {
				fmt.Println("用法: range <开始日期> <结束日期>")
				continue
			}
			if err := idx.Range.SetStart(args[0]); err != nil {
				fmt.Println(err)
				continue
			}
			if err := idx.Range.SetEnd(args[1]); err != nil {
				fmt.Println(err)
				continue
			}
			idx.CommitRange(ctx)

		case "preset":
			if len(args) != 1 {
				fmt.Println("用法: preset today|last7days|last30days|last90days")
				continue
			}
			if err := idx.Range.QuickSelect(search.Preset(args[0])); err != nil {
				fmt.Println(err)
				continue
			}
			idx.CommitRange(ctx)

		case "list":
			for _, p := range idx.Results() {
				fmt.Printf("  #%d %s %s 最近就诊 %s\n", p.ID, p.Name, p.Phone, p.LastVisit)
			}

		case "select":
			id, ok := parseID(args)
			if !ok {
				continue
			}
			idx.SelectPatient(ctx, id)
			reportErr(ctrl.LoadPatient(ctx, id))
			notifyGrid(ctx, ctrl, similar)

		case "history":
			for _, v := range idx.History() {
				fmt.Printf("  #%d %s %s\n", v.ID, v.VisitDate, v.Complaint)
			}

		case "record":
			id, ok := parseID(args)
			if !ok {
				continue
			}
			idx.SelectRecord(id)
			reportErr(ctrl.LoadRecord(ctx, id))
			notifyGrid(ctx, ctrl, similar)

		case "patient":
			if len(args) < 4 {
				fmt.Println("用法: patient <姓名> <年龄> <性别> <电话>")
				continue
			}
			ctrl.SetPatientInfo(models.PatientInfo{Name: args[0], Age: args[1], Gender: args[2], Phone: args[3]})

		case "complaint", "prescription", "dosage", "note":
			st := ctrl.Snapshot()
			text := strings.Join(args, " ")
			switch cmd {
			case "complaint":
				st.Note.Complaint = text
			case "prescription":
				st.Note.Prescription = text
			case "dosage":
				st.Note.TotalDosage = text
			case "note":
				st.Note.Note = text
			}
			ctrl.SetClinicalNote(st.Note)

		case "pulse":
			if len(args) < 1 {
				fmt.Println("用法: pulse <脉位> [描述]")
				continue
			}
			ctrl.SetPulseValue(args[0], strings.Join(args[1:], " "))
			notifyGrid(ctx, ctrl, similar)

		case "similar":
			for _, c := range similar.Results() {
				fmt.Printf("  #%d %s %s %s (匹配度 %d)\n", c.RecordID, c.PatientName, c.VisitDate, c.Complaint, c.Score)
			}

		case "open":
			id, ok := parseID(args)
			if !ok {
				continue
			}
			reportErr(similar.SelectCase(ctx, id))
			notifyGrid(ctx, ctrl, similar)

		case "mode":
			if len(args) != 1 || (args[0] != string(models.ModePersonal) && args[0] != string(models.ModeShadowing)) {
				fmt.Println("用法: mode personal|shadowing")
				continue
			}
			ctrl.SetMode(models.PracticeMode(args[0]))

		case "teacher":
			ctrl.SetTeacher(strings.Join(args, " "))

		case "roster":
			teachers, err := rosterLoader.Teachers(ctx)
			if err != nil {
				fmt.Println(err)
				continue
			}
			for _, p := range teachers {
				fmt.Printf("  %s (%s)\n", p.Name, p.Role)
			}

		case "save":
			if id, err := ctrl.Save(ctx); err != nil {
				fmt.Println("保存失败:", err)
			} else {
				fmt.Printf("保存成功，病历 ID %d\n", id)
			}

		case "new":
			ctrl.NewPatient()
			notifyGrid(ctx, ctrl, similar)

		case "delete":
			reportErr(ctrl.RequestDelete())

		case "confirm":
			if err := ctrl.ConfirmDelete(ctx); err != nil {
				fmt.Println("删除失败:", err)
			} else {
				fmt.Println("已删除")
				notifyGrid(ctx, ctrl, similar)
			}

		case "cancel":
			ctrl.CancelDelete()

		case "analyze":
			// 分析失败由调用方负责反馈
			if err := ctrl.Analyze(ctx); err != nil {
				fmt.Println("分析失败:", err)
				continue
			}
			if a := ctrl.Snapshot().Analysis; a != nil {
				fmt.Println("  脉证一致性:", a.ConsistencyComment)
				fmt.Println("  处方合理性:", a.PrescriptionComment)
				fmt.Println("  建议:", a.Suggestion)
			}

		case "show":
			printState(ctrl.Snapshot())

		case "quit", "exit":
			return

		default:
			fmt.Println("未知命令，输入 help 查看用法")
		}
	}
}

// notifyGrid 九宫格内容变化后驱动相似病例检索
func notifyGrid(ctx context.Context, ctrl *session.Controller, similar *search.SimilarLookup) {
	similar.GridChanged(ctx, ctrl.Snapshot().Grid)
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		fmt.Println("需要一个数字 ID")
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("无效的 ID:", args[0])
		return 0, false
	}
	return id, true
}

func reportErr(err error) {
	if err != nil && err != session.ErrStale {
		fmt.Println(err)
	}
}

func printState(st session.State) {
	fmt.Printf("  患者: %s %s %s %s\n", st.Patient.Name, st.Patient.Age, st.Patient.Gender, st.Patient.Phone)
	fmt.Printf("  主诉: %s\n", st.Note.Complaint)
	fmt.Printf("  处方: %s (%s)\n", st.Note.Prescription, st.Note.TotalDosage)
	fmt.Printf("  备注: %s\n", st.Note.Note)
	for _, pos := range models.PulsePositions {
		if v := st.Grid.Get(pos); v != "" {
			fmt.Printf("  脉象[%s]: %s\n", pos, v)
		}
	}
	if v := st.Grid.Get(models.OverallDescriptionKey); v != "" {
		fmt.Printf("  整体脉象: %s\n", v)
	}
	if st.CurrentRecordID != 0 {
		fmt.Printf("  当前病历 ID: %d\n", st.CurrentRecordID)
	} else {
		fmt.Println("  当前病历: 未保存")
	}
	fmt.Printf("  模式: %s", st.Mode)
	if st.Teacher != "" {
		fmt.Printf("（带教老师 %s）", st.Teacher)
	}
	fmt.Println()
}

func printHelp() {
	fmt.Println(`命令:
  search <文本>            按姓名/电话搜索（清空退回日期浏览）
  range <起> <止>          设置日期范围（YYYY-MM-DD）并提交
  preset <名称>            today|last7days|last30days|last90days
  list / history / similar 查看结果列表 / 就诊历史 / 相似病例
  select <患者ID>          载入患者及其最近病历
  record <病历ID>          载入指定历史病历
  open <病历ID>            打开相似病例对应的病历
  patient <姓名> <年龄> <性别> <电话>
  complaint|prescription|dosage|note <文本>
  pulse <脉位> [描述]      编辑九宫格（空描述清除该脉位）
  mode personal|shadowing  切换执诊模式
  teacher <姓名> / roster  设置带教老师 / 查看老师名册
  save / new / analyze     保存 / 新患者 / AI 分析
  delete / confirm / cancel 删除流程
  show / quit`)
}
